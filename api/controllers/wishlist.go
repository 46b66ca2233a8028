package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/averyross/bookhaven-backend/api/responses"
	"github.com/averyross/bookhaven-backend/api/validators"
	"github.com/averyross/bookhaven-backend/internal/catalog"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
)

type wishlistRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

type wishlistResponse struct {
	Books []catalog.BookSummary `json:"books"`
}

func WishlistGet(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := controllerForRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistResponse{Books: ctrl.Snapshot().Wishlist})
	}
}

func WishlistAdd(carts cartProvider, books bookResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload wishlistRequest
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

		if err := ctrl.AddToWishlist(r.Context(), book); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistResponse{Books: ctrl.Snapshot().Wishlist})
	}
}

// WishlistToggle flips membership and reports the resulting state, saving the
// round trip the storefront's heart button would otherwise need.
func WishlistToggle(carts cartProvider, books bookResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload wishlistRequest
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

		added, err := ctrl.ToggleWishlist(r.Context(), book)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"inWishlist": added,
			"books":      ctrl.Snapshot().Wishlist,
		})
	}
}

func WishlistRemove(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
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

		if err := ctrl.RemoveFromWishlist(r.Context(), bookID.String()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistResponse{Books: ctrl.Snapshot().Wishlist})
	}
}
