package service

import (
	"context"
	"fmt"

	"gatepass/internal/models"
)

// FacadeService presents tickets through a token-style asset interface:
// monotonically increasing token ids, per-token URI and owner lookups, and a
// transfer that delegates to the ticket workflow.
type FacadeService struct {
	store   Store
	tickets *TicketService
}

func NewFacadeService(store Store, tickets *TicketService) *FacadeService {
	return &FacadeService{store: store, tickets: tickets}
}

// LastTokenID returns the highest ticket id issued so far, zero when no ticket
// has ever been minted.
func (s *FacadeService) LastTokenID(ctx context.Context) (*models.LastTokenIDResponse, error) {
	state, err := s.store.GetState(ctx, s.store.Read())
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("ledger state not bootstrapped")
	}
	return &models.LastTokenIDResponse{LastTokenID: state.NextTicketID - 1}, nil
}

// TokenURI returns the metadata URI of the token's event. Absent tokens get an
// empty URI rather than an error.
func (s *FacadeService) TokenURI(ctx context.Context, tokenID int64) (*models.TokenURIResponse, error) {
	resp := &models.TokenURIResponse{TokenID: tokenID}

	ticket, err := s.store.GetTicket(ctx, s.store.Read(), tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return resp, nil
	}

	event, err := s.store.GetEvent(ctx, s.store.Read(), ticket.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event != nil {
		resp.URI = event.MetadataURI
	}
	return resp, nil
}

// OwnerOf returns the token's owner, nil for tokens that do not exist.
func (s *FacadeService) OwnerOf(ctx context.Context, tokenID int64) (*models.TokenOwnerResponse, error) {
	resp := &models.TokenOwnerResponse{TokenID: tokenID}

	ticket, err := s.store.GetTicket(ctx, s.store.Read(), tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket != nil {
		owner := ticket.Owner
		resp.Owner = &owner
	}
	return resp, nil
}

// Transfer moves a token between accounts with the same rules as a ticket
// transfer.
func (s *FacadeService) Transfer(ctx context.Context, caller int64, req *models.TransferTicketRequest) error {
	return s.tickets.Transfer(ctx, caller, req)
}
