package utils

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"

	"github.com/shopspring/decimal"

	"storefront_back_end/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(v float64) string {
		return "$" + decimal.NewFromFloat(v).StringFixed(2)
	},
	"lineTotal": func(i models.CartItem) string {
		return "$" + i.LineTotal().StringFixed(2)
	},
}).ParseFS(templateFS, "templates/*.html"))

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("❌ Template %s: %v", name, err)
		return "", err
	}
	return buf.String(), nil
}

// OrderConfirmationEmail builds the checkout confirmation. The QR code
// points at orderURL and is both inlined and attached.
func OrderConfirmationEmail(order models.Order, orderURL string) (Email, error) {
	data := struct {
		Order    models.Order
		OrderURL string
		QRCode   template.URL
	}{Order: order, OrderURL: orderURL}

	var attachments []Attachment
	if orderURL != "" {
		png, err := QRCodePNG(orderURL)
		if err != nil {
			return Email{}, fmt.Errorf("order qr code: %w", err)
		}
		data.QRCode = template.URL(DataURI(png))
		attachments = append(attachments, Attachment{Name: "order-" + order.ID + ".png", Data: png})
	}

	html, err := render("order_confirmation.html", data)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:          order.ShippingInfo.Email,
		Subject:     fmt.Sprintf("✅ Order #%s confirmed", order.ID),
		HTML:        html,
		Attachments: attachments,
	}, nil
}

type statusCopy struct {
	Subject, Headline, Message, Icon, Color string
}

func statusText(status models.OrderStatus) statusCopy {
	switch status {
	case models.OrderProcessing:
		return statusCopy{"⚙️ Your order is being prepared", "Order in progress", "We are preparing your items.", "⚙️", "#2563eb"}
	case models.OrderShipped:
		return statusCopy{"📦 Your order has shipped", "Order shipped", "Your package is on its way.", "📦", "#7c3aed"}
	case models.OrderDelivered:
		return statusCopy{"🎉 Your order was delivered", "Order delivered", "Your package has been delivered. Enjoy!", "🎉", "#10b981"}
	default:
		return statusCopy{"📋 Update on your order", "Order update", "Your order status is now " + string(status) + ".", "📋", "#333333"}
	}
}

// OrderStatusEmail tells the customer about a status change.
func OrderStatusEmail(order models.Order, orderURL string) (Email, error) {
	sc := statusText(order.Status)
	html, err := render("order_status.html", struct {
		statusCopy
		Order    models.Order
		OrderURL string
	}{sc, order, orderURL})
	if err != nil {
		return Email{}, err
	}
	return Email{To: order.ShippingInfo.Email, Subject: sc.Subject, HTML: html}, nil
}

type ContactMessage struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// ContactEmail forwards a contact form message to the shop inbox.
func ContactEmail(to string, m ContactMessage) (Email, error) {
	html, err := render("contact.html", m)
	if err != nil {
		return Email{}, err
	}
	subject := "📨 Contact: " + m.Subject
	if m.Subject == "" {
		subject = "📨 Contact form message"
	}
	return Email{To: to, ReplyTo: m.Email, Subject: subject, HTML: html}, nil
}
