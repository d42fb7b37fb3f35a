package service

import (
	"context"
	"testing"

	"maremio_backend/internal/orders/repository"
	"maremio_backend/internal/orders/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

func TestComputeStatsAggregatesProductsAndDays(t *testing.T) {
	orders := exportFixture()
	orders[0].CustomerPhone, orders[0].TotalAmount = "3331234567", 30
	orders[1].CustomerPhone, orders[1].TotalAmount = "3331234567", 20
	orders[2].TotalAmount = 49.996
	orders = append(orders, repository.Order{
		CustomerName: "Dario", DeliveryDate: "2024-12-31", TotalAmount: 10,
		Items: []repository.OrderItem{{ProductName: "Tiramisù", Category: "dolci", Quantity: 1, TotalPrice: 10}},
	})

	stats := ComputeStats(orders)
	if stats.TotalOrders != 4 || stats.TotalItems != 11 {
		t.Fatalf("unexpected totals %d orders / %d items", stats.TotalOrders, stats.TotalItems)
	}
	if stats.UniqueCustomers != 3 {
		t.Fatalf("expected 3 customers, got %d", stats.UniqueCustomers)
	}
	if stats.TotalRevenue != 110 {
		t.Fatalf("expected revenue 110, got %v", stats.TotalRevenue)
	}
	if top := stats.TopProducts[0]; top.Name != "Lasagna di mare" || top.Quantity != 8 || top.Revenue != 80 {
		t.Fatalf("unexpected top product %+v", top)
	}
	if stats.TopProducts[1].Name != "Tiramisù" || stats.TopProducts[1].Quantity != 2 {
		t.Fatalf("expected Tiramisù second, got %+v", stats.TopProducts[1])
	}
	if stats.Categories[0].Category != "primi" || stats.Categories[0].Quantity != 8 {
		t.Fatalf("unexpected categories %+v", stats.Categories)
	}
	if len(stats.Days) != 2 || stats.Days[0].Date != "2024-12-31" || stats.Days[1].Orders != 3 || stats.Days[1].Items != 10 {
		t.Fatalf("unexpected days %+v", stats.Days)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.TotalOrders != 0 || stats.TopProducts == nil || stats.Days == nil || stats.Categories == nil {
		t.Fatalf("expected zero totals with empty slices, got %+v", stats)
	}
}

func TestComputeStatsLimitsTopProducts(t *testing.T) {
	order := repository.Order{DeliveryDate: "2024-12-24"}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		order.Items = append(order.Items, repository.OrderItem{ProductName: name, Quantity: 1})
	}
	stats := ComputeStats([]repository.Order{order})
	if len(stats.TopProducts) != topProductsLimit {
		t.Fatalf("expected %d products, got %d", topProductsLimit, len(stats.TopProducts))
	}
	if stats.Categories[0].Category != "altro" || stats.Categories[0].Quantity != 12 {
		t.Fatalf("expected uncategorised lines under altro, got %+v", stats.Categories)
	}
}

func TestStatsFiltersRangeAndCancelled(t *testing.T) {
	repo := &fakeRepo{orders: exportFixture()}
	svc := New(repo, validator.New(), nil, logger.Discard())

	stats, err := svc.Stats(context.Background(), transport.StatsRequest{From: "2024-12-01", To: "2024-12-31"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalOrders != 3 || stats.From != "2024-12-01" || stats.To != "2024-12-31" {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if repo.lastList.DeliveryFrom != "2024-12-01" || repo.lastList.DeliveryTo != "2024-12-31" {
		t.Fatalf("range not forwarded: %+v", repo.lastList)
	}
	if len(repo.lastList.ExcludeStatuses) != 1 || repo.lastList.ExcludeStatuses[0] != "cancelled" {
		t.Fatalf("expected cancelled orders excluded, got %v", repo.lastList.ExcludeStatuses)
	}
}

func TestStatsRejectsInvertedRange(t *testing.T) {
	svc := New(&fakeRepo{}, validator.New(), nil, logger.Discard())
	_, err := svc.Stats(context.Background(), transport.StatsRequest{From: "2024-12-31", To: "2024-12-01"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
