package purchase

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

type fakeGateway struct {
	available bool
	result    contractx.SendResult
	err       error
	sent      []string
}

func (f *fakeGateway) IsAvailable(ctx context.Context) bool {
	return f.available
}

func (f *fakeGateway) Send(ctx context.Context, recipient, subject, body string) (contractx.SendResult, error) {
	f.sent = append(f.sent, recipient)
	if f.err != nil {
		return contractx.SendResult{}, f.err
	}
	return f.result, nil
}

func newTestAgent(t *testing.T, gateway contractx.MessagingGateway) *Agent {
	t.Helper()
	a, err := New(Config{}, gateway)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestAssessCompleteness(t *testing.T) {
	t.Parallel()

	a := newTestAgent(t, &fakeGateway{})

	tests := []struct {
		name        string
		instr       contractx.PurchaseInstruction
		wantReady   bool
		wantMissing []string
	}{
		{
			name: "complete",
			instr: contractx.PurchaseInstruction{
				Item:        "lumber",
				Quantity:    "100",
				VendorEmail: "charlie@woodworks.com",
			},
			wantReady: true,
		},
		{
			name:        "item only",
			instr:       contractx.PurchaseInstruction{Item: "lumber"},
			wantMissing: []string{FieldQuantity, FieldVendorEmail},
		},
		{
			name:        "nothing",
			instr:       contractx.PurchaseInstruction{},
			wantMissing: []string{FieldItem, FieldQuantity, FieldVendorEmail},
		},
		{
			name: "non-numeric quantity",
			instr: contractx.PurchaseInstruction{
				Item:        "lumber",
				Quantity:    "a few",
				VendorEmail: "charlie@woodworks.com",
			},
			wantMissing: []string{FieldQuantity},
		},
		{
			name: "zero quantity",
			instr: contractx.PurchaseInstruction{
				Item:        "lumber",
				Quantity:    "0",
				VendorEmail: "charlie@woodworks.com",
			},
			wantMissing: []string{FieldQuantity},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := a.AssessCompleteness(tc.instr)
			if got.Ready != tc.wantReady {
				t.Fatalf("Ready = %v, want %v", got.Ready, tc.wantReady)
			}
			if len(got.Missing) != len(tc.wantMissing) {
				t.Fatalf("Missing = %v, want %v", got.Missing, tc.wantMissing)
			}
			for i, field := range tc.wantMissing {
				if got.Missing[i] != field {
					t.Fatalf("Missing = %v, want %v", got.Missing, tc.wantMissing)
				}
			}
			if !got.Ready && got.Prompt == "" {
				t.Fatal("incomplete assessment must carry a prompt")
			}
			for _, field := range tc.wantMissing {
				if !strings.Contains(got.Prompt, field) {
					t.Fatalf("prompt %q does not mention %q", got.Prompt, field)
				}
			}
		})
	}
}

func TestRequirePrice(t *testing.T) {
	t.Parallel()

	a, err := New(Config{RequirePrice: true}, &fakeGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := a.AssessCompleteness(contractx.PurchaseInstruction{
		Item:        "lumber",
		Quantity:    "100",
		VendorEmail: "charlie@woodworks.com",
	})
	if got.Ready {
		t.Fatal("expected price to be required")
	}
	if len(got.Missing) != 1 || got.Missing[0] != FieldPrice {
		t.Fatalf("Missing = %v, want [%s]", got.Missing, FieldPrice)
	}
}

func TestDraftIsDeterministic(t *testing.T) {
	t.Parallel()

	a := newTestAgent(t, &fakeGateway{})
	instr := contractx.PurchaseInstruction{
		Item:        "lumber",
		Quantity:    "100",
		VendorEmail: "charlie@woodworks.com",
		VendorName:  "WoodWorks",
		Price:       "$5",
	}

	first := a.Draft(instr)
	second := a.Draft(instr)
	if first != second {
		t.Fatal("same instruction must produce the same draft")
	}

	if first.Recipient != "charlie@woodworks.com" {
		t.Fatalf("Recipient = %q", first.Recipient)
	}
	if !strings.Contains(first.Subject, "Initial Purchase Order Request") {
		t.Fatalf("Subject = %q", first.Subject)
	}
	for _, want := range []string{"Dear WoodWorks,", "- Product/Service: lumber", "- Quantity: 100", "- Price: $5", "- Delivery Date: ASAP"} {
		if !strings.Contains(first.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, first.Body)
		}
	}
}

func TestDraftWithoutPriceRequestsQuote(t *testing.T) {
	t.Parallel()

	a := newTestAgent(t, &fakeGateway{})
	draft := a.Draft(contractx.PurchaseInstruction{
		Item:        "lumber",
		Quantity:    "100",
		VendorEmail: "charlie@woodworks.com",
	})

	if !strings.Contains(draft.Body, "To be quoted") {
		t.Fatalf("body missing quote request:\n%s", draft.Body)
	}
	if !strings.Contains(draft.Body, "Dear Supplier,") {
		t.Fatalf("body missing generic salutation:\n%s", draft.Body)
	}
}

func TestRenderDraftRoundTrip(t *testing.T) {
	t.Parallel()

	a := newTestAgent(t, &fakeGateway{})
	draft := a.Draft(contractx.PurchaseInstruction{
		Item:        "lumber",
		Quantity:    "100",
		VendorEmail: "charlie@woodworks.com",
	})

	rendered := RenderDraft(draft)
	if !DraftRenderedIn(rendered, draft) {
		t.Fatal("rendering must embed its own draft")
	}

	tampered := draft
	tampered.Body = draft.Body + " extra"
	if DraftRenderedIn(rendered, tampered) {
		t.Fatal("tampered draft must not verify")
	}
}

func TestSendStatuses(t *testing.T) {
	t.Parallel()

	t.Run("unavailable gateway falls back to demo", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{available: false}
		a := newTestAgent(t, gw)

		got := a.Send(context.Background(), "v@x.com", "s", "b")
		if got.Status != contractx.SendStatusDemoFallback {
			t.Fatalf("Status = %s, want %s", got.Status, contractx.SendStatusDemoFallback)
		}
		if len(gw.sent) != 0 {
			t.Fatal("unavailable gateway must not be called")
		}
	})

	t.Run("successful send", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{
			available: true,
			result:    contractx.SendResult{Status: contractx.SendStatusSent},
		}
		a := newTestAgent(t, gw)

		got := a.Send(context.Background(), "v@x.com", "s", "b")
		if got.Status != contractx.SendStatusSent {
			t.Fatalf("Status = %s, want %s", got.Status, contractx.SendStatusSent)
		}
		if len(gw.sent) != 1 || gw.sent[0] != "v@x.com" {
			t.Fatalf("sent = %v", gw.sent)
		}
	})

	t.Run("gateway error", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{available: true, err: errors.New("boom")}
		a := newTestAgent(t, gw)

		got := a.Send(context.Background(), "v@x.com", "s", "b")
		if got.Status != contractx.SendStatusFailed {
			t.Fatalf("Status = %s, want %s", got.Status, contractx.SendStatusFailed)
		}
		if got.Detail != "boom" {
			t.Fatalf("Detail = %q", got.Detail)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{available: true, err: context.DeadlineExceeded}
		a := newTestAgent(t, gw)

		got := a.Send(context.Background(), "v@x.com", "s", "b")
		if got.Status != contractx.SendStatusFailed {
			t.Fatalf("Status = %s, want %s", got.Status, contractx.SendStatusFailed)
		}
		if got.Detail != "timeout" {
			t.Fatalf("Detail = %q, want timeout", got.Detail)
		}
	})
}

func TestNewRequiresGateway(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, nil); err == nil {
		t.Fatal("expected error for nil gateway")
	}
}
