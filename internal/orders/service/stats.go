package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"maremio_backend/internal/orders/repository"
	"maremio_backend/internal/orders/transport"
	"maremio_backend/platform/apperr"
)

const (
	topProductsLimit = 10
	statusCancelled  = "cancelled"

	msgInvalidRange = "intervallo di date non valido"
)

// Stats aggregates the non-cancelled orders delivered between req.From and
// req.To (both inclusive, either may be empty).
func (s *Service) Stats(ctx context.Context, req transport.StatsRequest) (transport.StatsResponse, error) {
	if req.From != "" && req.To != "" && req.From > req.To {
		return transport.StatsResponse{}, apperr.Validation(msgInvalidRange)
	}

	orders, _, err := s.repo.List(ctx, repository.ListOrdersParams{
		DeliveryFrom:    req.From,
		DeliveryTo:      req.To,
		ExcludeStatuses: []string{statusCancelled},
		Limit:           math.MaxInt32,
	})
	if err != nil {
		return transport.StatsResponse{}, err
	}

	stats := ComputeStats(orders)
	stats.From = req.From
	stats.To = req.To
	return stats, nil
}

// ComputeStats builds per-product, per-category and per-day aggregates.
// Products are ranked by quantity, days run newest first.
func ComputeStats(orders []repository.Order) transport.StatsResponse {
	products := make(map[string]*transport.ProductStat)
	categories := make(map[string]int)
	days := make(map[string]*transport.DayStat)
	customers := make(map[string]struct{})

	resp := transport.StatsResponse{TotalOrders: len(orders)}
	for _, order := range orders {
		day, ok := days[order.DeliveryDate]
		if !ok {
			day = &transport.DayStat{Date: order.DeliveryDate}
			days[order.DeliveryDate] = day
		}
		day.Orders++
		day.Revenue += order.TotalAmount
		resp.TotalRevenue += order.TotalAmount
		customers[customerKey(order)] = struct{}{}

		for _, item := range order.Items {
			product, ok := products[item.ProductName]
			if !ok {
				product = &transport.ProductStat{Name: item.ProductName, Category: item.Category, Unit: item.Unit}
				products[item.ProductName] = product
			}
			product.Quantity += item.Quantity
			product.Revenue += item.TotalPrice

			category := item.Category
			if category == "" {
				category = "altro"
			}
			categories[category] += item.Quantity
			day.Items += item.Quantity
			resp.TotalItems += item.Quantity
		}
	}
	resp.UniqueCustomers = len(customers)
	resp.TotalRevenue = roundCents(resp.TotalRevenue)

	resp.TopProducts = make([]transport.ProductStat, 0, len(products))
	for _, product := range products {
		product.Revenue = roundCents(product.Revenue)
		resp.TopProducts = append(resp.TopProducts, *product)
	}
	sort.Slice(resp.TopProducts, func(i, j int) bool {
		a, b := resp.TopProducts[i], resp.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(resp.TopProducts) > topProductsLimit {
		resp.TopProducts = resp.TopProducts[:topProductsLimit]
	}

	resp.Categories = make([]transport.CategoryStat, 0, len(categories))
	for category, quantity := range categories {
		resp.Categories = append(resp.Categories, transport.CategoryStat{Category: category, Quantity: quantity})
	}
	sort.Slice(resp.Categories, func(i, j int) bool {
		a, b := resp.Categories[i], resp.Categories[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Category < b.Category
	})

	resp.Days = make([]transport.DayStat, 0, len(days))
	for _, day := range days {
		day.Revenue = roundCents(day.Revenue)
		resp.Days = append(resp.Days, *day)
	}
	sort.Slice(resp.Days, func(i, j int) bool { return resp.Days[i].Date > resp.Days[j].Date })
	return resp
}

// customerKey identifies a customer by phone, falling back to the name for
// orders taken without one.
func customerKey(order repository.Order) string {
	if phone := strings.TrimSpace(order.CustomerPhone); phone != "" {
		return phone
	}
	return "name:" + strings.ToLower(strings.TrimSpace(order.CustomerName))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
