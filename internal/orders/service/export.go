package service

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"maremio_backend/internal/orders/repository"
)

const (
	sheetOrders         = "Ordini"
	sheetItems          = "Dettaglio Prodotti"
	sheetKitchen        = "Riepilogo Cucina"
	sheetPortionSummary = "Riepilogo"
	sheetPortionDetail  = "Dettaglio Clienti"
)

var categoryLabels = map[string]string{
	"antipasti":        "Antipasti",
	"sughi":            "Sughi",
	"primi":            "Primi Piatti",
	"secondi":          "Secondi Piatti",
	"pronti_a_cuocere": "Pronti a Cuocere",
	"crudi":            "Crudi",
	"dolci":            "Dolci",
	"altro":            "Altro",
}

var unitLabels = map[string]string{
	"etto":     "Etti",
	"pezzo":    "Pezzi",
	"porzione": "Porzioni",
}

func labelOr(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// KitchenLine is the total quantity of one product across orders.
type KitchenLine struct {
	Name     string
	Category string
	Unit     string
	Quantity int
}

// QuantityBreakdown counts how many orders asked for the same quantity.
type QuantityBreakdown struct {
	Quantity   int
	OrderCount int
	Customers  []string
}

// PortionLine is one product row of the porzionatore sheet.
type PortionLine struct {
	Name      string
	Category  string
	Unit      string
	Total     int
	Breakdown []QuantityBreakdown
}

// KitchenSummary sums quantities per product name, sorted by category and
// then by descending quantity.
func KitchenSummary(orders []repository.Order) []KitchenLine {
	byName := make(map[string]*KitchenLine)
	for _, order := range orders {
		for _, item := range order.Items {
			line, ok := byName[item.ProductName]
			if !ok {
				line = &KitchenLine{Name: item.ProductName, Category: item.Category, Unit: item.Unit}
				byName[item.ProductName] = line
			}
			line.Quantity += item.Quantity
		}
	}

	lines := make([]KitchenLine, 0, len(byName))
	for _, line := range byName {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Category != lines[j].Category {
			return lines[i].Category < lines[j].Category
		}
		if lines[i].Quantity != lines[j].Quantity {
			return lines[i].Quantity > lines[j].Quantity
		}
		return lines[i].Name < lines[j].Name
	})
	return lines
}

// PortionSummary groups each product's order lines by requested quantity,
// so the kitchen can pre-portion (e.g. 4 orders of x2, 1 order of x5).
func PortionSummary(orders []repository.Order) []PortionLine {
	type acc struct {
		line  PortionLine
		byQty map[int]*QuantityBreakdown
	}
	byName := make(map[string]*acc)
	for _, order := range orders {
		for _, item := range order.Items {
			a, ok := byName[item.ProductName]
			if !ok {
				a = &acc{
					line:  PortionLine{Name: item.ProductName, Category: item.Category, Unit: item.Unit},
					byQty: make(map[int]*QuantityBreakdown),
				}
				byName[item.ProductName] = a
			}
			a.line.Total += item.Quantity
			bd, ok := a.byQty[item.Quantity]
			if !ok {
				bd = &QuantityBreakdown{Quantity: item.Quantity}
				a.byQty[item.Quantity] = bd
			}
			bd.OrderCount++
			bd.Customers = append(bd.Customers, order.CustomerName)
		}
	}

	lines := make([]PortionLine, 0, len(byName))
	for _, a := range byName {
		for _, bd := range a.byQty {
			a.line.Breakdown = append(a.line.Breakdown, *bd)
		}
		sort.Slice(a.line.Breakdown, func(i, j int) bool {
			return a.line.Breakdown[i].Quantity < a.line.Breakdown[j].Quantity
		})
		lines = append(lines, a.line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Category != lines[j].Category {
			return lines[i].Category < lines[j].Category
		}
		if lines[i].Total != lines[j].Total {
			return lines[i].Total > lines[j].Total
		}
		return lines[i].Name < lines[j].Name
	})
	return lines
}

// sheetWriter fills one sheet row by row.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) write(values ...any) {
	w.row++
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
}

func newSheet(f *excelize.File, name string, first bool) (*sheetWriter, error) {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return nil, fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", name, err)
	}
	return &sheetWriter{f: f, sheet: name}, nil
}

// BuildOrdersWorkbook renders the order list, every line and the kitchen totals.
func BuildOrdersWorkbook(orders []repository.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	ordersSheet, err := newSheet(f, sheetOrders, true)
	if err != nil {
		return nil, err
	}
	ordersSheet.write("ID Ordine", "Cliente", "Telefono", "Data Ritiro", "Ora Ritiro", "Tipo", "N. Prodotti", "Totale", "Note", "Creato il")
	for _, o := range orders {
		pieces := 0
		for _, item := range o.Items {
			pieces += item.Quantity
		}
		ordersSheet.write(o.OrderNumber, o.CustomerName, o.CustomerPhone, o.DeliveryDate, o.DeliveryTime,
			o.DeliveryType, pieces, o.TotalAmount, deref(o.Notes), o.CreatedAt)
	}

	itemsSheet, err := newSheet(f, sheetItems, false)
	if err != nil {
		return nil, err
	}
	itemsSheet.write("ID Ordine", "Prodotto", "Quantità", "Unità", "Prezzo", "Totale")
	for _, o := range orders {
		for _, item := range o.Items {
			itemsSheet.write(o.OrderNumber, item.ProductName, item.Quantity, labelOr(unitLabels, item.Unit), item.UnitPrice, item.TotalPrice)
		}
	}

	kitchenSheet, err := newSheet(f, sheetKitchen, false)
	if err != nil {
		return nil, err
	}
	kitchenSheet.write("Prodotto", "Categoria", "Unità", "Quantità Totale")
	for _, line := range KitchenSummary(orders) {
		kitchenSheet.write(line.Name, labelOr(categoryLabels, line.Category), labelOr(unitLabels, line.Unit), line.Quantity)
	}

	return writeWorkbook(f)
}

// BuildPortionWorkbook renders the porzionatore: one column per requested
// quantity (x1, x2, ...) holding the number of orders, plus who ordered what.
func BuildPortionWorkbook(orders []repository.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	lines := PortionSummary(orders)
	maxQty := 0
	for _, line := range lines {
		for _, bd := range line.Breakdown {
			if bd.Quantity > maxQty {
				maxQty = bd.Quantity
			}
		}
	}

	summary, err := newSheet(f, sheetPortionSummary, true)
	if err != nil {
		return nil, err
	}
	header := []any{"Prodotto", "Categoria", "Unità", "Totale"}
	for q := 1; q <= maxQty; q++ {
		header = append(header, fmt.Sprintf("x%d", q))
	}
	summary.write(header...)
	for _, line := range lines {
		counts := make(map[int]int, len(line.Breakdown))
		for _, bd := range line.Breakdown {
			counts[bd.Quantity] = bd.OrderCount
		}
		row := []any{line.Name, labelOr(categoryLabels, line.Category), labelOr(unitLabels, line.Unit), line.Total}
		for q := 1; q <= maxQty; q++ {
			if n, ok := counts[q]; ok {
				row = append(row, n)
			} else {
				row = append(row, "")
			}
		}
		summary.write(row...)
	}

	detail, err := newSheet(f, sheetPortionDetail, false)
	if err != nil {
		return nil, err
	}
	detail.write("Prodotto", "Quantità", "N. Ordini", "Clienti")
	for _, line := range lines {
		for _, bd := range line.Breakdown {
			detail.write(line.Name, fmt.Sprintf("x%d", bd.Quantity), bd.OrderCount, strings.Join(bd.Customers, ", "))
		}
	}

	return writeWorkbook(f)
}

func writeWorkbook(f *excelize.File) ([]byte, error) {
	f.SetActiveSheet(0)
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
