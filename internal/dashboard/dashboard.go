package dashboard

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/agrilogix/crateflow-backend/internal/inventory"
	"github.com/agrilogix/crateflow-backend/internal/loads"
	"github.com/agrilogix/crateflow-backend/pkg/db/models"
	"github.com/agrilogix/crateflow-backend/pkg/enums"
	pkgerrors "github.com/agrilogix/crateflow-backend/pkg/errors"
	"github.com/agrilogix/crateflow-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service composes the operational overview from the current database
// snapshot. Pure reads, no caching.
type Service struct {
	invRepo   *inventory.Repository
	loadsRepo *loads.Repository
	now       func() time.Time
}

func NewService(invRepo *inventory.Repository, loadsRepo *loads.Repository) *Service {
	return &Service{
		invRepo:   invRepo,
		loadsRepo: loadsRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StockEntry is one (site, packaging type) balance with its threshold
// classification.
type StockEntry struct {
	SiteID            uuid.UUID         `json:"siteId"`
	SiteCode          string            `json:"siteCode"`
	SiteName          string            `json:"siteName"`
	PackagingTypeID   uuid.UUID         `json:"packagingTypeId"`
	PackagingTypeCode string            `json:"packagingTypeCode"`
	Quantity          int               `json:"quantity"`
	DamagedQuantity   int               `json:"damagedQuantity"`
	MinimumLevel      int               `json:"minimumLevel"`
	MaximumLevel      int               `json:"maximumLevel"`
	Status            enums.StockStatus `json:"status"`
}

// InTransitEntry totals packaging on active loads per packaging type.
type InTransitEntry struct {
	PackagingTypeID   uuid.UUID `json:"packagingTypeId"`
	PackagingTypeCode string    `json:"packagingTypeCode"`
	Quantity          int       `json:"quantity"`
	LoadCount         int       `json:"loadCount"`
}

// Summary is the landing page payload.
type Summary struct {
	Stock               []StockEntry               `json:"stock"`
	InTransit           []InTransitEntry           `json:"inTransit"`
	UnacknowledgedAlert []models.Alert             `json:"unacknowledgedAlerts"`
	RecentDiscrepancies []models.Load              `json:"recentDiscrepancies"`
	TodayLoadCounts     map[enums.LoadStatus]int64 `json:"todayLoadCounts"`
}

// SiteDetail narrows the summary to one site.
type SiteDetail struct {
	Stock        []StockEntry   `json:"stock"`
	OpenLoads    []models.Load  `json:"openLoads"`
	RecentAlerts []models.Alert `json:"recentAlerts"`
}

// Summary builds the cross-site overview.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	stock, err := s.classifiedStock(ctx, nil)
	if err != nil {
		return nil, err
	}

	inTransit, err := s.inTransitTotals(ctx)
	if err != nil {
		return nil, err
	}

	alerts, _, err := s.invRepo.ListAlerts(ctx, false, pagination.Params{Limit: pagination.MaxLimit})
	if err != nil {
		return nil, err
	}

	discrepancyOnly := true
	recent, _, err := s.loadsRepo.List(ctx, loads.ListFilters{
		HasDiscrepancy: &discrepancyOnly,
		Page:           pagination.Params{Limit: 10},
	})
	if err != nil {
		return nil, err
	}

	counts, err := s.loadsRepo.CountByStatusOnDate(ctx, s.now())
	if err != nil {
		return nil, err
	}

	return &Summary{
		Stock:               stock,
		InTransit:           inTransit,
		UnacknowledgedAlert: alerts,
		RecentDiscrepancies: recent,
		TodayLoadCounts:     counts,
	}, nil
}

// SiteDetail builds the per-site view.
func (s *Service) SiteDetail(ctx context.Context, siteID uuid.UUID) (*SiteDetail, error) {
	if _, err := s.loadsRepo.FindSite(ctx, siteID); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "site not found")
		}
		return nil, err
	}

	stock, err := s.classifiedStock(ctx, &siteID)
	if err != nil {
		return nil, err
	}

	open, _, err := s.loadsRepo.List(ctx, loads.ListFilters{
		SiteID: &siteID,
		Page:   pagination.Params{Limit: pagination.MaxLimit},
	})
	if err != nil {
		return nil, err
	}
	openLoads := make([]models.Load, 0, len(open))
	for _, load := range open {
		if !load.Status.IsTerminal() {
			openLoads = append(openLoads, load)
		}
	}

	alerts, _, err := s.invRepo.ListAlerts(ctx, true, pagination.Params{Limit: 20})
	if err != nil {
		return nil, err
	}
	siteAlerts := make([]models.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if alert.SiteID == siteID {
			siteAlerts = append(siteAlerts, alert)
		}
	}

	return &SiteDetail{
		Stock:        stock,
		OpenLoads:    openLoads,
		RecentAlerts: siteAlerts,
	}, nil
}

func (s *Service) classifiedStock(ctx context.Context, siteID *uuid.UUID) ([]StockEntry, error) {
	balances, err := s.invRepo.ListBalances(ctx, siteID)
	if err != nil {
		return nil, err
	}
	thresholds, err := s.invRepo.ListThresholds(ctx, siteID)
	if err != nil {
		return nil, err
	}

	type key struct{ site, pt uuid.UUID }
	bands := make(map[key]models.StockThreshold, len(thresholds))
	for _, threshold := range thresholds {
		bands[key{threshold.SiteID, threshold.PackagingTypeID}] = threshold
	}

	entries := make([]StockEntry, 0, len(balances))
	for _, balance := range balances {
		entry := StockEntry{
			SiteID:            balance.SiteID,
			SiteCode:          balance.Site.Code,
			SiteName:          balance.Site.Name,
			PackagingTypeID:   balance.PackagingTypeID,
			PackagingTypeCode: balance.PackagingType.Code,
			Quantity:          balance.Quantity,
			DamagedQuantity:   balance.DamagedQuantity,
			Status:            enums.StockStatusNormal,
		}
		if band, ok := bands[key{balance.SiteID, balance.PackagingTypeID}]; ok {
			entry.MinimumLevel = band.MinimumLevel
			entry.MaximumLevel = band.MaximumLevel
			entry.Status = inventory.ClassifyStock(balance.Quantity, band.MinimumLevel)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) inTransitTotals(ctx context.Context) ([]InTransitEntry, error) {
	active, err := s.loadsRepo.ListActiveWithLines(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]*InTransitEntry)
	order := []uuid.UUID{}
	for _, load := range active {
		counted := make(map[uuid.UUID]bool)
		for _, line := range load.Lines {
			entry, ok := totals[line.PackagingTypeID]
			if !ok {
				entry = &InTransitEntry{
					PackagingTypeID:   line.PackagingTypeID,
					PackagingTypeCode: line.PackagingType.Code,
				}
				totals[line.PackagingTypeID] = entry
				order = append(order, line.PackagingTypeID)
			}
			entry.Quantity += line.QtyDispatched
			if !counted[line.PackagingTypeID] {
				entry.LoadCount++
				counted[line.PackagingTypeID] = true
			}
		}
	}

	entries := make([]InTransitEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *totals[id])
	}
	return entries, nil
}
