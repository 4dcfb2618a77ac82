package notify

import (
	"fmt"
	"strings"

	"qrtag-service/internal/models"
)

// OrderPaidMessage renders the confirmation sent to a buyer once payment is verified
func OrderPaidMessage(name string, order *models.Order) (subject, text, html string) {
	switch order.Kind {
	case models.OrderKindQRCreation:
		subject = fmt.Sprintf("Your tag %s is ready", order.TagID)
		text = fmt.Sprintf("Hi %s,\n\nWe received your payment of Rs. %d. Tag %s is now active.\n",
			name, order.Amount, order.TagID)
	default:
		subject = fmt.Sprintf("Sticker order #%d confirmed", order.ID)
		text = fmt.Sprintf("Hi %s,\n\nWe received your payment of Rs. %d for %d stickers of tag %s.\nShipping to: %s\n",
			name, order.Amount, order.Quantity, order.TagID, deliveryLine(order))
	}
	html = "<p>" + strings.ReplaceAll(text, "\n", "<br>") + "</p>"
	return subject, text, html
}

func deliveryLine(o *models.Order) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{o.Address, o.City, o.State, o.Pincode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
