package core

import "testing"

func TestTransactionInputValidate(t *testing.T) {
	cases := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"valid income", TransactionInput{WalletID: "w1", Kind: Income, Amount: dec("10")}, nil},
		{"valid expense", TransactionInput{WalletID: "w1", Kind: Expense, Amount: dec("10"), Category: "food"}, nil},
		{"zero amount", TransactionInput{WalletID: "w1", Kind: Income, Amount: dec("0")}, ErrInvalidAmount},
		{"negative amount", TransactionInput{WalletID: "w1", Kind: Income, Amount: dec("-4")}, ErrInvalidAmount},
		{"missing wallet", TransactionInput{Kind: Income, Amount: dec("10")}, ErrMissingWallet},
		{"missing kind", TransactionInput{WalletID: "w1", Amount: dec("10")}, ErrMissingKind},
		{"transfer unsupported", TransactionInput{WalletID: "w1", Kind: "transfer", Amount: dec("10")}, ErrMissingKind},
		{"expense without category", TransactionInput{WalletID: "w1", Kind: Expense, Amount: dec("10")}, ErrMissingCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Validate(); got != tc.want {
				t.Fatalf("Validate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWalletInputValidate(t *testing.T) {
	if err := (WalletInput{Name: "Savings"}).Validate(); err != nil {
		t.Fatalf("valid wallet: %v", err)
	}
	if err := (WalletInput{Name: "  "}).Validate(); err != ErrEmptyWalletName {
		t.Fatalf("blank name: got %v", err)
	}
}

func TestImageRefStates(t *testing.T) {
	var nilRef *ImageRef
	if nilRef.IsRemote() || nilRef.NeedsUpload() {
		t.Fatal("nil ref should be inert")
	}
	remote := &ImageRef{URL: "https://img.example/x.jpg"}
	if !remote.IsRemote() || remote.NeedsUpload() {
		t.Fatal("remote ref should not need upload")
	}
	local := &ImageRef{URI: "/tmp/receipt.jpg"}
	if local.IsRemote() || !local.NeedsUpload() {
		t.Fatal("local ref should need upload")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"12.345", "12.35", true}, // half-up on the third decimal
		{"0", "", false},
		{"", "", false},
		{"-3", "", false},
		{"+3", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParseAmount(%q): expected error", tc.in)
			}
			continue
		}
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
