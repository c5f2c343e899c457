package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PaymentGate is the read-mostly contract against the payment subsystem.
// The workflow only ever asks "has this application been paid", and
// deletes an unpaid placeholder record when an approval is reverted.
type PaymentGate interface {
	HasPaid(ctx context.Context, applicationID string) (bool, error)
	DeleteUnpaidRecord(ctx context.Context, applicationID string) error
}

type PaymentClient struct {
	httpClient *HttpClient
}

func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *PaymentClient) HasPaid(ctx context.Context, applicationID string) (bool, error) {
	path := "/api/v1/payments/application/" + url.PathEscape(applicationID)
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return false, fmt.Errorf("payment status request failed: %w", err)
	}

	// No payment record at all means unpaid.
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("payment service returned %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var status struct {
		Paid bool `json:"paid"`
	}
	if err := resp.DecodeJSON(&status); err != nil {
		return false, fmt.Errorf("could not decode payment status: %w", err)
	}
	return status.Paid, nil
}

// DeleteUnpaidRecord removes the placeholder payment record for an
// application. The payment service refuses to delete a paid record, so
// callers must check HasPaid first.
func (c *PaymentClient) DeleteUnpaidRecord(ctx context.Context, applicationID string) error {
	path := "/api/v1/payments/application/" + url.PathEscape(applicationID)
	resp, err := c.httpClient.DELETE(ctx, path)
	if err != nil {
		return fmt.Errorf("payment record deletion failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("payment service returned %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}
}
