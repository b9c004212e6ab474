package widget

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	domcheckout "example.com/storefront/internal/domain/checkout"
	dompayment "example.com/storefront/internal/domain/payment"
	checkoutuc "example.com/storefront/internal/usecase/checkout"
)

// Terminal prints the widget options and reads the shopper's answer:
//
//	pay <payment_id> <signature>
//	fail <reason>
type Terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewScanner(in), out: out}
}

func (t *Terminal) Open(ctx context.Context, sessionID string, cfg domcheckout.WidgetConfig, onSuccess checkoutuc.SuccessHandler, onFailure checkoutuc.FailureHandler) error {
	fmt.Fprintf(t.out, "%s - %s\n", cfg.Name, cfg.Description)
	fmt.Fprintf(t.out, "  order:    %s\n", cfg.OrderID)
	fmt.Fprintf(t.out, "  amount:   %d (minor units, %s)\n", cfg.Amount, cfg.Currency)
	fmt.Fprintf(t.out, "  customer: %s <%s> %s\n", cfg.Prefill.Name, cfg.Prefill.Email, cfg.Prefill.Contact)
	fmt.Fprintln(t.out, `Enter "pay <payment_id> <signature>" or "fail <reason>":`)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !t.in.Scan() {
			if err := t.in.Err(); err != nil {
				return fmt.Errorf("%w: %w", domcheckout.ErrWidgetUnavailable, err)
			}
			_, err := onFailure(ctx, dompayment.Failure{GatewayOrderID: cfg.OrderID, Description: "Payment cancelled"})
			return err
		}

		fields := strings.Fields(t.in.Text())
		switch {
		case len(fields) == 3 && fields[0] == "pay":
			_, err := onSuccess(ctx, dompayment.Result{
				GatewayOrderID:   cfg.OrderID,
				GatewayPaymentID: fields[1],
				GatewaySignature: fields[2],
			})
			return err
		case len(fields) >= 1 && fields[0] == "fail":
			reason := strings.TrimSpace(strings.Join(fields[1:], " "))
			if reason == "" {
				reason = "Payment cancelled"
			}
			_, err := onFailure(ctx, dompayment.Failure{GatewayOrderID: cfg.OrderID, Description: reason})
			return err
		default:
			fmt.Fprintln(t.out, "unrecognised input")
		}
	}
}

// Console is a checkout presenter that writes to a terminal.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Alert(_ context.Context, _ string, message string) {
	fmt.Fprintln(c.out, message)
}

func (c *Console) Redirect(_ context.Context, _ string, r domcheckout.Redirect) {
	if r.After > 0 {
		fmt.Fprintf(c.out, "-> %s (in %s)\n", r.Target, r.After)
		return
	}
	fmt.Fprintf(c.out, "-> %s\n", r.Target)
}
