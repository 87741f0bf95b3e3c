// Package billing parses and verifies Gumroad sale webhooks.
package billing

import (
	"net/url"
	"strings"
)

// WebhookEvent is a Gumroad "ping" notification decoded from its
// form-encoded body. Field names follow Gumroad's resource schema.
type WebhookEvent struct {
	ProductID           string
	Email               string
	PriceInCents        string
	Currency            string
	Quantity            string
	ProductName         string
	TransactionID       string
	Variant             string
	Test                string
	Recurrence          string
	IsGift              string
	Refunded            string
	PartialRefunded     string
	Chargedback         string
	Pending             string
	SubscriptionID      string
	CustomerID          string
	IPCountry           string
	IPCountryCode       string
	IPCity              string
	IP                  string
	UserAgent           string
	Referer             string
	OrderID             string
	Disputed            string
	DisputeWon          string
	ID                  string
	CreatedAt           string
	UpdatedAt           string
	SubscriptionEndDate string
	CancelledAt         string
	CancelReason        string
	CustomFields        string
	Metadata            string
	Timestamp           string

	// Signature is the sender-supplied HMAC, taken from the
	// X-Gumroad-Signature header or the signature form field.
	Signature string
}

// ParseWebhookEvent maps Gumroad's form field names onto a WebhookEvent.
// sale_id doubles as both the transaction id and the resource id, and
// sale_timestamp feeds every timestamp field, matching what Gumroad sends.
func ParseWebhookEvent(form url.Values) WebhookEvent {
	saleID := form.Get("sale_id")
	saleTimestamp := form.Get("sale_timestamp")

	return WebhookEvent{
		ProductID:           form.Get("product_id"),
		Email:               form.Get("email"),
		PriceInCents:        form.Get("price"),
		Currency:            form.Get("currency"),
		Quantity:            form.Get("quantity"),
		ProductName:         form.Get("product_name"),
		TransactionID:       saleID,
		Variant:             form.Get("variants[Tier]"),
		Test:                form.Get("test"),
		Recurrence:          form.Get("recurrence"),
		IsGift:              form.Get("is_gift_receiver_purchase"),
		Refunded:            form.Get("refunded"),
		PartialRefunded:     form.Get("partial_refunded"),
		Chargedback:         form.Get("chargedback"),
		Pending:             form.Get("pending"),
		SubscriptionID:      form.Get("subscription_id"),
		CustomerID:          form.Get("purchaser_id"),
		IPCountry:           form.Get("ip_country"),
		IPCountryCode:       form.Get("ip_country_code"),
		IPCity:              form.Get("ip_city"),
		IP:                  form.Get("ip"),
		UserAgent:           form.Get("user_agent"),
		Referer:             form.Get("referrer"),
		OrderID:             form.Get("order_number"),
		Disputed:            form.Get("disputed"),
		DisputeWon:          form.Get("dispute_won"),
		ID:                  saleID,
		CreatedAt:           saleTimestamp,
		UpdatedAt:           saleTimestamp,
		SubscriptionEndDate: form.Get("subscription_end_date"),
		CancelledAt:         form.Get("cancelled_at"),
		CancelReason:        form.Get("cancel_reason"),
		CustomFields:        form.Get("custom_fields"),
		Metadata:            form.Get("metadata"),
		Timestamp:           saleTimestamp,
		Signature:           form.Get("signature"),
	}
}

// VerificationString concatenates the event's fields in the fixed order
// the signature is computed over. Changing the order or the field set
// breaks verification against Gumroad's sender.
func (e WebhookEvent) VerificationString() string {
	var b strings.Builder
	for _, v := range []string{
		e.ProductID,
		e.Email,
		e.PriceInCents,
		e.Currency,
		e.Quantity,
		e.ProductName,
		e.TransactionID,
		e.Variant,
		e.Test,
		e.Recurrence,
		e.IsGift,
		e.Refunded,
		e.PartialRefunded,
		e.Chargedback,
		e.Pending,
		e.SubscriptionID,
		e.CustomerID,
		e.IPCountry,
		e.IPCountryCode,
		e.IPCity,
		e.IP,
		e.UserAgent,
		e.Referer,
		e.OrderID,
		e.Disputed,
		e.DisputeWon,
		e.ID,
		e.CreatedAt,
		e.UpdatedAt,
		e.SubscriptionEndDate,
		e.CancelledAt,
		e.CancelReason,
		e.CustomFields,
		e.Metadata,
		e.Timestamp,
	} {
		b.WriteString(v)
	}
	return b.String()
}

// IsRefund reports whether the event revokes a previous purchase.
func (e WebhookEvent) IsRefund() bool {
	return isTrue(e.Refunded) || isTrue(e.Chargedback)
}

// IsTest reports whether the event came from Gumroad's test mode.
func (e WebhookEvent) IsTest() bool {
	return isTrue(e.Test)
}

// EffectiveSubscriptionID returns the subscription id when present,
// falling back to the sale id for one-off purchases.
func (e WebhookEvent) EffectiveSubscriptionID() string {
	if e.SubscriptionID != "" {
		return e.SubscriptionID
	}
	return e.ID
}

func isTrue(s string) bool {
	return strings.EqualFold(s, "true") || s == "1"
}
