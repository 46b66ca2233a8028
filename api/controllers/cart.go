package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/averyross/bookhaven-backend/api/middleware"
	"github.com/averyross/bookhaven-backend/api/responses"
	"github.com/averyross/bookhaven-backend/api/validators"
	cartsvc "github.com/averyross/bookhaven-backend/internal/cart"
	"github.com/averyross/bookhaven-backend/internal/catalog"
	"github.com/averyross/bookhaven-backend/internal/identity"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
)

// cartProvider hands out the per-identity cart controller.
type cartProvider interface {
	For(ctx context.Context, id identity.Identity) (*cartsvc.Controller, error)
}

type cartEvicter interface {
	Evict(id identity.Identity)
}

// bookResolver looks up the catalog snapshot embedded into cart lines. Prices
// always come from the catalog, never from the request body.
type bookResolver interface {
	GetBook(ctx context.Context, id uuid.UUID) (*catalog.BookDetail, error)
}

func identityForUser(userID string) identity.Identity {
	return identity.Authenticated(userID)
}

type addToCartRequest struct {
	BookID   string `json:"book_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type cartResponse struct {
	Items     []cartsvc.Item `json:"items"`
	Total     string         `json:"total"`
	ItemCount int            `json:"itemCount"`
}

func newCartResponse(ctrl *cartsvc.Controller) cartResponse {
	doc := ctrl.Snapshot()
	return cartResponse{
		Items:     doc.Items,
		Total:     ctrl.CartTotal().StringFixed(2),
		ItemCount: ctrl.CartItemCount(),
	}
}

func controllerForRequest(r *http.Request, carts cartProvider) (*cartsvc.Controller, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identity missing from request context")
	}
	return carts.For(r.Context(), id)
}

func resolveBook(r *http.Request, books bookResolver, rawID string) (catalog.BookSummary, error) {
	bookID, err := uuid.Parse(rawID)
	if err != nil {
		return catalog.BookSummary{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id")
	}
	detail, err := books.GetBook(r.Context(), bookID)
	if err != nil {
		return catalog.BookSummary{}, err
	}
	return detail.BookSummary, nil
}

func CartGet(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := controllerForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl))
	}
}

func CartAddItem(carts cartProvider, books bookResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := resolveBook(r, books, payload.BookID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctrl, err := controllerForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := ctrl.AddToCart(r.Context(), book, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl))
	}
}

func CartUpdateItem(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		ctrl, err := controllerForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := ctrl.UpdateQuantity(r.Context(), bookID.String(), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl))
	}
}

func CartRemoveItem(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid book id"))
			return
		}

		ctrl, err := controllerForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := ctrl.RemoveFromCart(r.Context(), bookID.String()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl))
	}
}

func CartClear(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := controllerForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := ctrl.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ctrl))
	}
}
