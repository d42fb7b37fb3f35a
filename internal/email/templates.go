package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	Footer     string
}

// OrderConfirmation is what the customer sees in the confirmation email.
type OrderConfirmation struct {
	RestaurantName string
	CustomerName   string
	OrderNumber    string
	DeliveryDate   string // yyyy-mm-dd
	DeliveryTime   string // HH:mm
	DeliveryType   string // pickup | delivery
	Lines          []ConfirmationLine
	Total          float64
}

type ConfirmationLine struct {
	Name     string
	Quantity int
	Price    float64
}

type orderLineView struct {
	Name     string
	Quantity int
	Amount   string
}

type orderConfirmationEmailData struct {
	baseEmailData
	CustomerName string
	OrderNumber  string
	When         string
	DeliveryNote string
	Lines        []orderLineView
	Total        string
}

func renderOrderConfirmation(order OrderConfirmation) (string, string, error) {
	subject := fmt.Sprintf(subjectOrderConfirmationFmt, order.OrderNumber, order.RestaurantName)

	data := orderConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:      subject,
			Heading:    "Grazie per il tuo ordine!",
			Subheading: "Ordine n. " + order.OrderNumber,
			Footer:     order.RestaurantName,
		},
		CustomerName: order.CustomerName,
		OrderNumber:  order.OrderNumber,
		When:         strings.TrimSpace(FormatItalianDate(order.DeliveryDate) + " alle " + order.DeliveryTime),
		DeliveryNote: deliveryLabel(order.DeliveryType),
		Lines:        make([]orderLineView, 0, len(order.Lines)),
		Total:        formatCurrencyEUR(order.Total),
	}
	for _, line := range order.Lines {
		data.Lines = append(data.Lines, orderLineView{
			Name:     line.Name,
			Quantity: line.Quantity,
			Amount:   formatCurrencyEUR(line.Price * float64(line.Quantity)),
		})
	}

	content, err := renderEmailTemplate("order_confirmation.html", data)
	if err != nil {
		return "", "", err
	}
	return subject, content, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyEUR(amount float64) string {
	return strings.Replace(fmt.Sprintf("€ %.2f", amount), ".", ",", 1)
}

func deliveryLabel(deliveryType string) string {
	if deliveryType == "delivery" {
		return "Consegna a domicilio"
	}
	return "Ritiro in negozio"
}

var (
	italianWeekdays = [...]string{"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"}
	italianMonths   = [...]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
		"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"}
)

// FormatItalianDate renders 2024-12-24 as "martedì 24 dicembre 2024".
// Unparseable input is returned unchanged.
func FormatItalianDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %d %s %d", italianWeekdays[t.Weekday()], t.Day(), italianMonths[t.Month()-1], t.Year())
}
