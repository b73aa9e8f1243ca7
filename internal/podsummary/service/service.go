// Package service maintains the POD summary read model: idempotent
// create-or-get, request-driven recompute, batch sync from the request
// streams, and the mock shipping transitions.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	customerdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/domain"
	customerservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/service"
	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/events"
	podsummarydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/domain"
	requestdomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/domain"
)

// Service is the aggregator over the summary read model.
type Service interface {
	// CreateOrGet is idempotent per (pod, customer, company): an existing
	// summary gets its timestamp refreshed, a new one is derived immediately.
	CreateOrGet(ctx context.Context, companyID snowflake.ID, podCode string, customerID snowflake.ID) (*podsummarydomain.PodSummary, bool, error)

	Get(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error)
	List(ctx context.Context, companyID snowflake.ID) ([]podsummarydomain.PodSummary, error)

	// Recompute re-derives every summary matching (pod, fiscal_code) and
	// persists only those whose aggregate actually changed.
	Recompute(ctx context.Context, companyID snowflake.ID, podCode, fiscalCode string) error

	// RecomputeForRequest is the trigger hook fired by request mutations.
	RecomputeForRequest(ctx context.Context, key requestdomain.StreamKey) error

	// SyncFromRequests scans all three streams and materializes a summary for
	// every (pod, fiscal_code) pair, creating customers opportunistically.
	// Requires PARTNER_ENERGIA. Per-pair failures are isolated and counted.
	SyncFromRequests(ctx context.Context, companyID snowflake.ID) (*podsummarydomain.SyncResult, error)

	// BatchUpdateAllStatuses re-derives every non-deleted summary and returns
	// how many actually changed status.
	BatchUpdateAllStatuses(ctx context.Context) (int, error)

	// Mock shipping transitions; no shipment entity backs these, the status
	// field is the only state and the transition table is the only guard.
	RequestShipping(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error)
	MarkShippingDispatched(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error)
	MarkShippingDelivered(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error)
	MarkShippingFailed(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error)
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	SummaryRepo  podsummarydomain.Repository
	RequestRepo  requestdomain.Repository
	DeviceRepo   devicedomain.Repository
	CustomerRepo customerdomain.Repository
	Customers    customerservice.Service
	Authz        authorization.Service
	Outbox       *events.Outbox
}

type ServiceImpl struct {
	db           *gorm.DB
	log          *zap.Logger
	summaryRepo  podsummarydomain.Repository
	requestRepo  requestdomain.Repository
	deviceRepo   devicedomain.Repository
	customerRepo customerdomain.Repository
	customers    customerservice.Service
	authz        authorization.Service
	outbox       *events.Outbox
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:           p.DB,
		log:          p.Log.Named("podsummary.service"),
		summaryRepo:  p.SummaryRepo,
		requestRepo:  p.RequestRepo,
		deviceRepo:   p.DeviceRepo,
		customerRepo: p.CustomerRepo,
		customers:    p.Customers,
		authz:        p.Authz,
		outbox:       p.Outbox,
	}
}

// NewRecomputer exposes the aggregator as the request-stream trigger hook.
func NewRecomputer(s Service) requestdomain.SummaryRecomputer { return s }

func (s *ServiceImpl) CreateOrGet(ctx context.Context, companyID snowflake.ID, podCode string, customerID snowflake.ID) (*podsummarydomain.PodSummary, bool, error) {
	podCode = strings.TrimSpace(podCode)
	if podCode == "" {
		return nil, false, podsummarydomain.ErrMissingPodCode
	}
	if customerID == 0 {
		return nil, false, podsummarydomain.ErrMissingCustomer
	}

	// Internal path: a failed POD authorization is logged, not fatal.
	if _, err := s.authz.ValidatePodAccess(ctx, companyID, []string{podCode}); err != nil {
		s.log.Warn("pod access validation failed during summary create",
			zap.String("company_id", companyID.String()),
			zap.String("pod", podCode),
			zap.Error(err))
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return nil, false, err
	}
	if customer == nil || customer.CompanyID != companyID {
		return nil, false, podsummarydomain.ErrMissingCustomer
	}

	existing, err := s.summaryRepo.FindByKey(ctx, s.db, companyID, podCode, customerID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := s.summaryRepo.Update(ctx, s.db, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	summary := &podsummarydomain.PodSummary{
		CompanyID:          companyID,
		PodCode:            podCode,
		CustomerID:         customerID,
		CustomerFiscalCode: customer.FiscalCode,
		CustomerName:       customer.DisplayName(),
		Status:             podsummarydomain.StatusCustomerCreated,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.summaryRepo.Create(ctx, tx, summary); err != nil {
			return err
		}
		if _, err := s.recomputeOne(ctx, tx, summary); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: companyID,
			Type:      events.EventPodSummaryCreated,
			Payload: events.SummaryCreatedPayload{
				SummaryID:  summary.ID.String(),
				PodCode:    summary.PodCode,
				FiscalCode: summary.CustomerFiscalCode,
			}.ToMap(),
		})
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("pod summary created",
		zap.String("company_id", companyID.String()),
		zap.String("pod", podCode),
		zap.String("fiscal_code", summary.CustomerFiscalCode),
		zap.String("status", string(summary.Status)))
	return summary, true, nil
}

func (s *ServiceImpl) Get(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error) {
	summary, err := s.summaryRepo.FindByID(ctx, s.db, summaryID)
	if err != nil {
		return nil, err
	}
	if summary == nil || summary.CompanyID != companyID {
		return nil, podsummarydomain.ErrSummaryNotFound
	}
	return summary, nil
}

func (s *ServiceImpl) List(ctx context.Context, companyID snowflake.ID) ([]podsummarydomain.PodSummary, error) {
	return s.summaryRepo.ListByCompany(ctx, s.db, companyID)
}

func (s *ServiceImpl) Recompute(ctx context.Context, companyID snowflake.ID, podCode, fiscalCode string) error {
	summaries, err := s.summaryRepo.FindByPodAndFiscal(ctx, s.db, companyID, podCode, fiscalCode)
	if err != nil {
		return err
	}
	for i := range summaries {
		summary := summaries[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.recomputeOne(ctx, tx, &summary)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) RecomputeForRequest(ctx context.Context, key requestdomain.StreamKey) error {
	return s.Recompute(ctx, key.CompanyID, key.Pod, key.FiscalCode)
}

// recomputeOne re-derives the whole aggregate for one summary inside tx.
// It persists and emits a status-change event only when something changed,
// and reports whether the status itself moved.
func (s *ServiceImpl) recomputeOne(ctx context.Context, tx *gorm.DB, summary *podsummarydomain.PodSummary) (bool, error) {
	key := requestdomain.StreamKey{
		CompanyID:  summary.CompanyID,
		Pod:        summary.PodCode,
		FiscalCode: summary.CustomerFiscalCode,
	}

	admissibility, err := s.requestRepo.SearchAdmissibility(ctx, tx, key)
	if err != nil {
		return false, err
	}
	associations, err := s.requestRepo.SearchAssociation(ctx, tx, key)
	if err != nil {
		return false, err
	}
	disassociations, err := s.requestRepo.SearchDisassociation(ctx, tx, key)
	if err != nil {
		return false, err
	}
	devices, err := s.deviceRepo.SearchByPod(ctx, tx, summary.CompanyID, summary.PodCode)
	if err != nil {
		return false, err
	}

	oldStatus := summary.Status
	next := *summary

	next.Status = podsummarydomain.DeriveStatus(admissibility, associations, disassociations)
	next.HasActiveAssociations = next.Status.HasActiveAssociations()

	applyDeviceAggregation(&next, devices)
	applyRequestAggregation(&next, admissibility, associations, disassociations)
	applyActivityDate(&next, devices)

	if aggregateEqual(summary, &next) {
		return false, nil
	}

	*summary = next
	if err := s.summaryRepo.Update(ctx, tx, summary); err != nil {
		return false, err
	}

	if summary.Status != oldStatus {
		s.log.Info("pod status changed",
			zap.String("company_id", summary.CompanyID.String()),
			zap.String("pod", summary.PodCode),
			zap.String("old_status", string(oldStatus)),
			zap.String("new_status", string(summary.Status)))
		err := s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: summary.CompanyID,
			Type:      events.EventPodStatusChanged,
			Payload: events.StatusChangedPayload{
				SummaryID:  summary.ID.String(),
				PodCode:    summary.PodCode,
				FiscalCode: summary.CustomerFiscalCode,
				OldStatus:  string(oldStatus),
				NewStatus:  string(summary.Status),
			}.ToMap(),
		})
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *ServiceImpl) SyncFromRequests(ctx context.Context, companyID snowflake.ID) (*podsummarydomain.SyncResult, error) {
	if err := s.authz.CheckCompanyPermission(ctx, companyID, companydomain.PermPartnerEnergia); err != nil {
		return nil, err
	}

	admissibility, err := s.requestRepo.ListAdmissibilityByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	associations, err := s.requestRepo.ListAssociationByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	disassociations, err := s.requestRepo.ListDisassociationByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}

	combos := collectCombinations(admissibility, associations, disassociations)
	result := &podsummarydomain.SyncResult{Total: len(combos)}

	for _, combo := range combos {
		// One transaction per pair: a bad record never poisons the batch.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			customer, created, err := s.customers.FindOrCreate(ctx, tx, companyID, combo.fiscalCode, combo.seed)
			if err != nil {
				return err
			}
			if created {
				result.CustomersCreated++
			}

			existing, err := s.summaryRepo.FindByKey(ctx, tx, companyID, combo.pod, customer.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				if _, err := s.recomputeOne(ctx, tx, existing); err != nil {
					return err
				}
				result.Updated++
				return nil
			}

			summary := &podsummarydomain.PodSummary{
				CompanyID:          companyID,
				PodCode:            combo.pod,
				CustomerID:         customer.ID,
				CustomerFiscalCode: customer.FiscalCode,
				CustomerName:       customer.DisplayName(),
				Status:             podsummarydomain.StatusCustomerCreated,
			}
			if err := s.summaryRepo.Create(ctx, tx, summary); err != nil {
				return err
			}
			if _, err := s.recomputeOne(ctx, tx, summary); err != nil {
				return err
			}
			result.Created++
			return nil
		})
		if err != nil {
			result.Errors++
			s.log.Error("summary sync failed for combination",
				zap.String("company_id", companyID.String()),
				zap.String("pod", combo.pod),
				zap.String("fiscal_code", combo.fiscalCode),
				zap.Error(err))
		}
	}

	s.log.Info("summary sync completed",
		zap.String("company_id", companyID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("customers_created", result.CustomersCreated),
		zap.Int("errors", result.Errors),
		zap.Int("total", result.Total))
	return result, nil
}

func (s *ServiceImpl) BatchUpdateAllStatuses(ctx context.Context) (int, error) {
	summaries, err := s.summaryRepo.ListActive(ctx, s.db)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range summaries {
		summary := summaries[i]
		oldStatus := summary.Status
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.recomputeOne(ctx, tx, &summary)
			return err
		})
		if err != nil {
			s.log.Error("batch status refresh failed",
				zap.String("pod", summary.PodCode),
				zap.String("fiscal_code", summary.CustomerFiscalCode),
				zap.Error(err))
			continue
		}
		if summary.Status != oldStatus {
			changed++
		}
	}

	s.log.Info("batch status refresh completed",
		zap.Int("changed", changed),
		zap.Int("total", len(summaries)))
	return changed, nil
}

func (s *ServiceImpl) RequestShipping(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return s.applyShippingTransition(ctx, companyID, summaryID, podsummarydomain.StatusShippingRequested)
}

func (s *ServiceImpl) MarkShippingDispatched(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return s.applyShippingTransition(ctx, companyID, summaryID, podsummarydomain.StatusShippingDispatched)
}

func (s *ServiceImpl) MarkShippingDelivered(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return s.applyShippingTransition(ctx, companyID, summaryID, podsummarydomain.StatusShippingDelivered)
}

func (s *ServiceImpl) MarkShippingFailed(ctx context.Context, companyID, summaryID snowflake.ID) (*podsummarydomain.PodSummary, error) {
	return s.applyShippingTransition(ctx, companyID, summaryID, podsummarydomain.StatusShippingFailed)
}

func (s *ServiceImpl) applyShippingTransition(ctx context.Context, companyID, summaryID snowflake.ID, target podsummarydomain.Status) (*podsummarydomain.PodSummary, error) {
	summary, err := s.Get(ctx, companyID, summaryID)
	if err != nil {
		return nil, err
	}
	if !summary.Status.CanTransition(target) {
		return nil, &podsummarydomain.TransitionError{From: summary.Status, To: target}
	}

	oldStatus := summary.Status
	summary.Status = target
	summary.HasActiveAssociations = target.HasActiveAssociations()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.summaryRepo.Update(ctx, tx, summary); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: companyID,
			Type:      events.EventPodStatusChanged,
			Payload: events.StatusChangedPayload{
				SummaryID:  summary.ID.String(),
				PodCode:    summary.PodCode,
				FiscalCode: summary.CustomerFiscalCode,
				OldStatus:  string(oldStatus),
				NewStatus:  string(target),
			}.ToMap(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("shipping status set",
		zap.String("company_id", companyID.String()),
		zap.String("pod", summary.PodCode),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(target)))
	return summary, nil
}

type combination struct {
	pod        string
	fiscalCode string
	seed       customerdomain.Seed
}

type comboKey struct {
	pod        string
	fiscalCode string
}

// collectCombinations gathers the unique (pod, fiscal_code) pairs across the
// streams. Association data wins for customer seeding since it carries the
// full personal fields; the other streams only fill gaps.
func collectCombinations(
	admissibility []requestdomain.AdmissibilityRequest,
	associations []requestdomain.AssociationRequest,
	disassociations []requestdomain.DisassociationRequest,
) []combination {
	seen := make(map[comboKey]int)
	var out []combination

	add := func(pod, fiscal string, seed customerdomain.Seed, overwrite bool) {
		pod = strings.TrimSpace(pod)
		fiscal = strings.ToUpper(strings.TrimSpace(fiscal))
		if pod == "" || fiscal == "" {
			return
		}
		key := comboKey{pod: pod, fiscalCode: fiscal}
		if idx, ok := seen[key]; ok {
			if overwrite {
				out[idx].seed = seed
			}
			return
		}
		seen[key] = len(out)
		out = append(out, combination{pod: pod, fiscalCode: fiscal, seed: seed})
	}

	for _, req := range admissibility {
		add(req.Pod, req.FiscalCode, customerdomain.Seed{Group: req.Group}, false)
	}
	for _, req := range associations {
		add(req.Pod, req.FiscalCode, customerdomain.Seed{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			UserType:  req.UserType,
			Group:     req.Group,
		}, true)
	}
	for _, req := range disassociations {
		add(req.Pod, req.FiscalCode, customerdomain.Seed{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			UserType:  req.UserType,
			Group:     req.Group,
		}, false)
	}
	return out
}

func applyDeviceAggregation(summary *podsummarydomain.PodSummary, devices []devicedomain.Device) {
	summary.DeviceCount = len(devices)
	summary.DeviceIDs = nil
	summary.PrimaryDeviceID = ""
	summary.DeviceTypes = ""
	if len(devices) == 0 {
		return
	}

	ids := make([]string, 0, len(devices))
	var types []string
	seenTypes := make(map[string]struct{})
	for _, device := range devices {
		ids = append(ids, device.DeviceID)
		if name := strings.TrimSpace(device.TypeName); name != "" {
			if _, dup := seenTypes[name]; !dup {
				seenTypes[name] = struct{}{}
				types = append(types, name)
			}
		}
	}
	summary.DeviceIDs = datatypes.NewJSONSlice(ids)
	summary.DeviceTypes = strings.Join(types, ", ")

	// Primary device: first active one, else the first overall.
	summary.PrimaryDeviceID = devices[0].DeviceID
	for _, device := range devices {
		if device.Active {
			summary.PrimaryDeviceID = device.DeviceID
			break
		}
	}
}

func applyRequestAggregation(
	summary *podsummarydomain.PodSummary,
	admissibility []requestdomain.AdmissibilityRequest,
	associations []requestdomain.AssociationRequest,
	disassociations []requestdomain.DisassociationRequest,
) {
	summary.AdmissibilityCount = len(admissibility)
	summary.AssociationCount = len(associations)
	summary.DisassociationCount = len(disassociations)

	summary.LatestRequestType = ""
	summary.LatestRequestStatus = ""
	summary.LatestRequestDate = nil

	// Streams are newest-first, so each head is its stream's candidate.
	consider := func(stream, status string, created time.Time) {
		if summary.LatestRequestDate == nil || created.After(*summary.LatestRequestDate) {
			date := created
			summary.LatestRequestType = stream
			summary.LatestRequestStatus = status
			summary.LatestRequestDate = &date
		}
	}
	if len(admissibility) > 0 {
		consider(requestdomain.StreamAdmissibility, admissibility[0].Status, admissibility[0].CreatedAt)
	}
	if len(associations) > 0 {
		consider(requestdomain.StreamAssociation, associations[0].Status, associations[0].CreatedAt)
	}
	if len(disassociations) > 0 {
		consider(requestdomain.StreamDisassociation, disassociations[0].Status, disassociations[0].CreatedAt)
	}
}

func applyActivityDate(summary *podsummarydomain.PodSummary, devices []devicedomain.Device) {
	var last time.Time
	if summary.LatestRequestDate != nil {
		last = *summary.LatestRequestDate
	}
	for _, device := range devices {
		if device.UpdatedAt.After(last) {
			last = device.UpdatedAt
		}
	}
	if last.IsZero() {
		last = summary.CreatedAt
	}
	date := last
	summary.LastActivityDate = &date
}

func aggregateEqual(a, b *podsummarydomain.PodSummary) bool {
	if a.Status != b.Status ||
		a.HasActiveAssociations != b.HasActiveAssociations ||
		a.DeviceCount != b.DeviceCount ||
		a.PrimaryDeviceID != b.PrimaryDeviceID ||
		a.DeviceTypes != b.DeviceTypes ||
		a.AdmissibilityCount != b.AdmissibilityCount ||
		a.AssociationCount != b.AssociationCount ||
		a.DisassociationCount != b.DisassociationCount ||
		a.LatestRequestType != b.LatestRequestType ||
		a.LatestRequestStatus != b.LatestRequestStatus {
		return false
	}
	if !timePtrEqual(a.LatestRequestDate, b.LatestRequestDate) {
		return false
	}
	if !timePtrEqual(a.LastActivityDate, b.LastActivityDate) {
		return false
	}
	if len(a.DeviceIDs) != len(b.DeviceIDs) {
		return false
	}
	for i := range a.DeviceIDs {
		if a.DeviceIDs[i] != b.DeviceIDs[i] {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
