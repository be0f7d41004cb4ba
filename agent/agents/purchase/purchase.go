// Package purchase implements the stateless action specialist. Each operation
// (assess completeness, draft, send) receives a fully self-contained
// instruction and keeps no state between calls. The agent trusts its caller:
// the coordinator alone decides when Send may run.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

const (
	FieldItem        = "item"
	FieldQuantity    = "quantity"
	FieldVendorEmail = "vendor email"
	FieldPrice       = "price"
)

type Config struct {
	CompanyName     string `envconfig:"COMPANY_NAME" split_words:"true" default:"BuildRight Construction"`
	ShippingAddress string `envconfig:"SHIPPING_ADDRESS" split_words:"true" default:"123 Construction Lane"`
	SenderName      string `envconfig:"SENDER_NAME" split_words:"true" default:"Procurement Team"`
	// RequirePrice makes price a hard requirement instead of falling back to
	// a quote request in the draft.
	RequirePrice bool `envconfig:"REQUIRE_PRICE" split_words:"true" default:"false"`
}

type Agent struct {
	cfg     Config
	gateway contractx.MessagingGateway
}

var _ contractx.Purchaser = (*Agent)(nil)

func New(cfg Config, gateway contractx.MessagingGateway) (*Agent, error) {
	if gateway == nil {
		return nil, errors.New("messaging gateway is required")
	}
	if strings.TrimSpace(cfg.CompanyName) == "" {
		cfg.CompanyName = "BuildRight Construction"
	}
	if strings.TrimSpace(cfg.ShippingAddress) == "" {
		cfg.ShippingAddress = "123 Construction Lane"
	}
	if strings.TrimSpace(cfg.SenderName) == "" {
		cfg.SenderName = "Procurement Team"
	}
	return &Agent{cfg: cfg, gateway: gateway}, nil
}

// AssessCompleteness reports which required fields the instruction still
// lacks. The prompt enumerates every missing field so the user can answer all
// of them in one turn.
func (a *Agent) AssessCompleteness(instr contractx.PurchaseInstruction) contractx.Assessment {
	var missing []string
	if strings.TrimSpace(instr.Item) == "" {
		missing = append(missing, FieldItem)
	}
	if !validQuantity(instr.Quantity) {
		missing = append(missing, FieldQuantity)
	}
	if strings.TrimSpace(instr.VendorEmail) == "" {
		missing = append(missing, FieldVendorEmail)
	}
	if a.cfg.RequirePrice && strings.TrimSpace(instr.Price) == "" {
		missing = append(missing, FieldPrice)
	}

	if len(missing) == 0 {
		return contractx.Assessment{Ready: true}
	}
	return contractx.Assessment{
		Missing: missing,
		Prompt:  missingPrompt(instr, missing),
	}
}

// Send dispatches the reviewed message through the gateway. An unavailable
// gateway downgrades to a demo fallback; a deadline expiry is a failed send,
// never an indefinite hang (the gateway enforces the timeout).
func (a *Agent) Send(ctx context.Context, recipient, subject, body string) contractx.SendResult {
	if !a.gateway.IsAvailable(ctx) {
		log.Info().Str("recipient", recipient).Msg("messaging gateway unavailable, demo fallback")
		return contractx.SendResult{
			Status: contractx.SendStatusDemoFallback,
			Detail: "messaging gateway is not configured",
		}
	}

	result, err := a.gateway.Send(ctx, recipient, subject, body)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		log.Warn().Err(err).Str("recipient", recipient).Msg("messaging send failed")
		return contractx.SendResult{
			Status: contractx.SendStatusFailed,
			Detail: reason,
		}
	}
	return result
}

func validQuantity(quantity string) bool {
	trimmed := strings.TrimSpace(quantity)
	if trimmed == "" {
		return false
	}
	n, err := strconv.Atoi(trimmed)
	return err == nil && n > 0
}

func missingPrompt(instr contractx.PurchaseInstruction, missing []string) string {
	var b strings.Builder
	if item := strings.TrimSpace(instr.Item); item != "" {
		fmt.Fprintf(&b, "I can set up the order for %s, but I still need: ", item)
	} else {
		b.WriteString("To place this order I still need: ")
	}
	b.WriteString(strings.Join(missing, ", "))
	b.WriteString(". Could you provide ")
	if len(missing) == 1 {
		b.WriteString("it?")
	} else {
		b.WriteString("them?")
	}
	return b.String()
}
