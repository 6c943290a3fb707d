package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarrantyService runs the warranty request and service ticket lifecycles.
// Unlike returns, finishing a repair leaves the unit sold and its window intact.
type WarrantyService interface {
	CreateWarrantyRequest(ctx context.Context, actor Actor, in CreateWarrantyInput) (*WarrantyRequest, error)
	// UpdateWarrantyRequestStatus lets staff approve or reject, and lets the owner
	// cancel. Approval opens the service ticket and completes the request at once.
	UpdateWarrantyRequestStatus(ctx context.Context, actor Actor, requestID, status string) (*WarrantyDecision, error)
	UpdateWarrantyStatus(ctx context.Context, actor Actor, warrantyID, status string) (*Warranty, error)

	GetWarrantyRequest(ctx context.Context, actor Actor, requestID string) (*WarrantyRequest, error)
	ListWarrantyRequests(ctx context.Context, actor Actor, f WarrantyRequestFilter) ([]WarrantyRequest, error)
	ListWarranties(ctx context.Context, actor Actor, f WarrantyFilter) ([]Warranty, error)
}

type WarrantyDecision struct {
	Request  *WarrantyRequest `json:"request"`
	Warranty *Warranty        `json:"warranty,omitempty"`
}

type warrantyService struct {
	store    Store
	units    *UnitLedger
	settings Settings
	logger   *zap.Logger
}

func NewWarrantyService(store Store, units *UnitLedger, settings Settings, logger *zap.Logger) WarrantyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &warrantyService{store: store, units: units, settings: settings.withDefaults(), logger: logger}
}

func (s *warrantyService) CreateWarrantyRequest(ctx context.Context, actor Actor, in CreateWarrantyInput) (*WarrantyRequest, error) {
	if err := requireFields(map[string]string{
		"productIdentityId": in.ProductIdentityID,
		"description":       in.Description,
		"fullName":          in.FullName,
		"phoneNumber":       in.PhoneNumber,
		"address":           in.Address,
	}); err != nil {
		return nil, err
	}

	var req *WarrantyRequest
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		sale, err := ownedSaleTx(ctx, tx, actor, in.ProductIdentityID)
		if err != nil {
			return err
		}
		now := s.settings.Now()
		if !sale.unit.HasWarrantyWindow() {
			return invalidf("unit %s has no warranty window", sale.unit.ID)
		}
		if !sale.unit.UnderWarrantyAt(now) {
			return invalidf("unit %s is out of warranty: window %s to %s", sale.unit.ID,
				sale.unit.WarrantyStartDate.Format(time.DateOnly), sale.unit.WarrantyEndDate.Format(time.DateOnly))
		}
		if err := s.units.CheckNoActiveWorkflowTx(ctx, tx, sale.unit.ID); err != nil {
			return err
		}

		req = &WarrantyRequest{
			ID:                uuid.NewString(),
			UserID:            actor.UserID,
			ProductIdentityID: sale.unit.ID,
			Description:       strings.TrimSpace(in.Description),
			FullName:          strings.TrimSpace(in.FullName),
			PhoneNumber:       strings.TrimSpace(in.PhoneNumber),
			Address:           strings.TrimSpace(in.Address),
			Status:            WarrantyRequestPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.InsertWarrantyRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("warranty requested",
		zap.String("warranty_request_id", req.ID),
		zap.String("unit_id", req.ProductIdentityID),
		zap.String("user_id", req.UserID),
	)
	return req, nil
}

func (s *warrantyService) UpdateWarrantyRequestStatus(ctx context.Context, actor Actor, requestID, status string) (*WarrantyDecision, error) {
	to, err := WarrantyRequestMachine.Parse(status)
	if err != nil {
		return nil, err
	}

	decision := &WarrantyDecision{}
	var from WarrantyRequestStatus
	err = runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		req, err := tx.LockWarrantyRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !actor.IsStaff() {
			if req.UserID != actor.UserID {
				return notFoundf("warranty request %s not found", requestID)
			}
			if to != WarrantyRequestCanceled {
				return invalidf("customers may only cancel their warranty requests, not set them to %s", to)
			}
		}
		from = req.Status
		if err := WarrantyRequestMachine.Check(from, to); err != nil {
			return err
		}
		now := s.settings.Now()

		if to == WarrantyRequestApproved {
			w, err := s.openWarrantyTx(ctx, tx, req, now)
			if err != nil {
				return err
			}
			decision.Warranty = w
			// Approval and ticket creation are one step.
			to = WarrantyRequestCompleted
		}

		req.Status = to
		req.UpdatedAt = now
		decision.Request = req
		return tx.UpdateWarrantyRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("warranty_request_id", requestID),
		zap.String("from", string(from)),
		zap.String("to", string(decision.Request.Status)),
		zap.String("actor", actor.UserID),
	}
	if decision.Warranty != nil {
		fields = append(fields, zap.String("warranty_id", decision.Warranty.ID))
	}
	s.logger.Info("warranty request status changed", fields...)
	return decision, nil
}

// openWarrantyTx bumps the unit's service counter and opens a ticket over the
// unit's existing warranty window.
func (s *warrantyService) openWarrantyTx(ctx context.Context, tx Tx, req *WarrantyRequest, now time.Time) (*Warranty, error) {
	open, err := tx.HasOpenWarranty(ctx, req.ProductIdentityID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, invalidf("unit %s is already under warranty service", req.ProductIdentityID)
	}
	unit, err := tx.LockUnit(ctx, req.ProductIdentityID)
	if err != nil {
		return nil, err
	}
	if !unit.HasWarrantyWindow() {
		return nil, invalidf("unit %s has no warranty window", unit.ID)
	}
	if err := s.units.IncrementWarrantyCountTx(ctx, tx, unit); err != nil {
		return nil, err
	}

	w := &Warranty{
		ID:                uuid.NewString(),
		WarrantyRequestID: req.ID,
		ProductIdentityID: unit.ID,
		Status:            WarrantyRequested,
		StartDate:         *unit.WarrantyStartDate,
		EndDate:           *unit.WarrantyEndDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.InsertWarranty(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *warrantyService) UpdateWarrantyStatus(ctx context.Context, actor Actor, warrantyID, status string) (*Warranty, error) {
	if !actor.IsStaff() {
		return nil, invalidf("only staff may change the status of a warranty")
	}
	to, err := WarrantyMachine.Parse(status)
	if err != nil {
		return nil, err
	}

	var w *Warranty
	var from WarrantyStatus
	err = runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		w, err = tx.LockWarranty(ctx, warrantyID)
		if err != nil {
			return err
		}
		from = w.Status
		if err := WarrantyMachine.Check(from, to); err != nil {
			return err
		}
		w.Status = to
		w.UpdatedAt = s.settings.Now()
		return tx.UpdateWarranty(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("warranty status changed",
		zap.String("warranty_id", w.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor.UserID),
	)
	return w, nil
}

func (s *warrantyService) GetWarrantyRequest(ctx context.Context, actor Actor, requestID string) (*WarrantyRequest, error) {
	var req *WarrantyRequest
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		req, err = tx.GetWarrantyRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !actor.IsStaff() && req.UserID != actor.UserID {
			return notFoundf("warranty request %s not found", requestID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *warrantyService) ListWarrantyRequests(ctx context.Context, actor Actor, f WarrantyRequestFilter) ([]WarrantyRequest, error) {
	if !actor.IsStaff() {
		f.UserID = actor.UserID
	}
	var out []WarrantyRequest
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListWarrantyRequests(ctx, f)
		return err
	})
	return out, err
}

func (s *warrantyService) ListWarranties(ctx context.Context, actor Actor, f WarrantyFilter) ([]Warranty, error) {
	if !actor.IsStaff() {
		return nil, invalidf("only staff may list warranties")
	}
	var out []Warranty
	err := runInTx(ctx, s.store, s.settings.TxTimeout, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListWarranties(ctx, f)
		return err
	})
	return out, err
}
