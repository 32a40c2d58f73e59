// Package validator checks proposed document line items against product
// master data, the HSN master, serial availability and derived stock. It
// never mutates state: validation is advisory for drafts and blocking for
// finalize/approve/post transitions.
package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vanik/internal/domain"
	"vanik/internal/port"
)

// LineInput is one proposed line item.
type LineInput struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Serials   []string
}

// Result is the outcome of validating a set of lines. Issues from all lines
// are collected, not fail-fast, so the caller can show every problem at once.
type Result struct {
	Valid  bool
	Issues []domain.ValidationIssue
}

// AsError converts a failed result into a *domain.ValidationError, or nil.
func (r *Result) AsError() error {
	if r.Valid {
		return nil
	}
	return &domain.ValidationError{Issues: r.Issues}
}

// SerialAvailability reports which of the given serials are available.
// Satisfied by port.SerialRepository outside a transaction and by
// port.PostingTx against locked rows during posting.
type SerialAvailability interface {
	AvailableSet(ctx context.Context, orgID, productID uuid.UUID, serials []string) (map[string]bool, error)
}

// Validator runs the line-item check pipeline.
type Validator struct {
	products port.ProductRepository
	hsn      port.HSNRepository
	stock    port.StockReader
	serials  SerialAvailability
}

// New builds a Validator over the given readers. Stock and serial readers are
// passed per call site so posting can validate against transaction-locked
// state while draft validation reads live state.
func New(products port.ProductRepository, hsn port.HSNRepository, stock port.StockReader, serials SerialAvailability) *Validator {
	return &Validator{products: products, hsn: hsn, stock: stock, serials: serials}
}

// ValidateLines runs the checks in order for each line, short-circuiting per
// item but never globally. allowDraft relaxes the master-link and approval
// gates (pending/auto_pass tolerated, rejected never) and is false for
// finalize/approve/post.
func (v *Validator) ValidateLines(ctx context.Context, orgID uuid.UUID, lines []LineInput, allowDraft bool) (*Result, error) {
	res := &Result{Valid: true}

	// Serials claimed by earlier lines are not available to later ones.
	claimed := make(map[string]bool)

	for i, ln := range lines {
		issue, err := v.checkLine(ctx, orgID, i, ln, allowDraft, claimed)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			res.Issues = append(res.Issues, *issue)
		}
	}

	res.Valid = len(res.Issues) == 0
	return res, nil
}

func (v *Validator) checkLine(ctx context.Context, orgID uuid.UUID, idx int, ln LineInput, allowDraft bool, claimed map[string]bool) (*domain.ValidationIssue, error) {
	fail := func(code domain.ValidationCode, msg string) *domain.ValidationIssue {
		return &domain.ValidationIssue{Code: code, Line: idx, ProductID: ln.ProductID, Message: msg}
	}

	product, err := v.products.GetByID(ctx, orgID, ln.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail(domain.CodeProductNotFound, fmt.Sprintf("product %s not found in this organization", ln.ProductID)), nil
		}
		return nil, fmt.Errorf("validator: loading product %s: %w", ln.ProductID, err)
	}
	if !product.IsActive {
		return fail(domain.CodeProductNotFound, fmt.Sprintf("product %q is inactive", product.Name)), nil
	}

	var master *domain.MasterProduct
	if product.MasterProductID == nil {
		if !allowDraft {
			return fail(domain.CodeMasterNotLinked, fmt.Sprintf("product %q is not linked to a master catalog entry", product.Name)), nil
		}
	} else {
		master, err = v.products.GetMaster(ctx, *product.MasterProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if allowDraft {
					master = nil
				} else {
					return fail(domain.CodeMasterNotLinked, fmt.Sprintf("master catalog entry for product %q does not exist", product.Name)), nil
				}
			} else {
				return nil, fmt.Errorf("validator: loading master product: %w", err)
			}
		}
	}

	if master != nil {
		switch {
		case master.ApprovalStatus == domain.ApprovalApproved:
			// ok
		case allowDraft && master.ApprovalStatus.TolerableForDraft():
			// pending/auto_pass tolerated in drafts
		default:
			return fail(domain.CodeMasterNotApproved, fmt.Sprintf("master product %q is %s, not approved", master.Name, master.ApprovalStatus)), nil
		}

		if master.HSNCode == nil || *master.HSNCode == "" {
			return fail(domain.CodeMasterMissingHSN, fmt.Sprintf("master product %q has no HSN/SAC code", master.Name)), nil
		}
		active, err := v.hsn.IsActiveCode(ctx, *master.HSNCode)
		if err != nil {
			return nil, fmt.Errorf("validator: HSN lookup for %q: %w", *master.HSNCode, err)
		}
		if !active {
			return fail(domain.CodeMasterInvalidHSN, fmt.Sprintf("HSN code %q is not an active code", *master.HSNCode)), nil
		}
	}

	if product.SerialTracked {
		if issue, err := v.checkSerials(ctx, orgID, idx, ln, claimed); issue != nil || err != nil {
			return issue, err
		}
	}

	available, err := v.stock.RawBalance(ctx, orgID, ln.ProductID)
	if err != nil {
		return nil, fmt.Errorf("validator: reading stock for %s: %w", ln.ProductID, err)
	}
	if ln.Qty.GreaterThan(available) {
		iss := fail(domain.CodeInsufficientStock,
			fmt.Sprintf("requested %s of %q but only %s in stock", ln.Qty, product.Name, available))
		iss.Available = available
		iss.Requested = ln.Qty
		return iss, nil
	}
	return nil, nil
}

func (v *Validator) checkSerials(ctx context.Context, orgID uuid.UUID, idx int, ln LineInput, claimed map[string]bool) (*domain.ValidationIssue, error) {
	qty := ln.Qty.IntPart()
	if int64(len(ln.Serials)) != qty || !ln.Qty.Equal(decimal.NewFromInt(qty)) {
		return &domain.ValidationIssue{
			Code: domain.CodeInsufficientSerials, Line: idx, ProductID: ln.ProductID,
			Message: fmt.Sprintf("serial-tracked line needs %s serial numbers, got %d", ln.Qty, len(ln.Serials)),
		}, nil
	}

	avail, err := v.serials.AvailableSet(ctx, orgID, ln.ProductID, ln.Serials)
	if err != nil {
		return nil, fmt.Errorf("validator: serial lookup: %w", err)
	}
	for _, s := range ln.Serials {
		if claimed[s] || !avail[s] {
			return &domain.ValidationIssue{
				Code: domain.CodeInsufficientSerials, Line: idx, ProductID: ln.ProductID,
				Message: fmt.Sprintf("serial %q is not available", s),
			}, nil
		}
	}
	for _, s := range ln.Serials {
		claimed[s] = true
	}
	return nil, nil
}
