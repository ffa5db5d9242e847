package catalog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
)

type handler struct {
	catalogService  *Service
	activityService *activity.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// The status filter is a staff shelf-management tool.
	status := params.Status
	if user, ok := auth.UserFromContext(c); !ok || !user.IsStaff() {
		status = nil
	}

	books, total, err := h.catalogService.List(ctx, ListOptions{
		Limit:  params.Limit,
		Offset: params.Offset,
		Search: params.Search,
		Genre:  params.Genre,
		Status: status,
	})
	if err != nil {
		return err
	}

	if params.Search != nil && *params.Search != "" {
		if user, ok := auth.UserFromContext(c); ok {
			ip := c.RealIP()
			details := "Searched for: " + *params.Search
			h.activityService.Record(ctx, activity.Entry{
				Action:    models.ActionSearch,
				UserID:    &user.ID,
				Details:   &details,
				IPAddress: &ip,
			})
		}
	}

	response := map[string]any{
		"books": books,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) genres(c echo.Context) error {
	ctx := c.Request().Context()

	genres, err := h.catalogService.Genres(ctx)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{"genres": genres}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.catalogService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	if user, ok := auth.UserFromContext(c); ok {
		ip := c.RealIP()
		h.activityService.Record(ctx, activity.Entry{
			Action:    models.ActionViewBook,
			UserID:    &user.ID,
			BookID:    &book.ID,
			IPAddress: &ip,
		})
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

// status reports the live availability of a single book, including who
// currently holds it when every copy is out.
func (h *handler) status(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.catalogService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	response := map[string]any{
		"id":               book.ID,
		"status":           book.Status,
		"available_copies": book.AvailableCopies,
		"total_copies":     book.TotalCopies,
	}

	if book.AvailableCopies == 0 && book.Status == models.BookStatusBorrowed {
		borrower, err := h.catalogService.CurrentBorrower(ctx, book.ID)
		if err != nil {
			return err
		}
		if borrower != nil {
			response["borrowed_by"] = borrower.Username
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.catalogService.Create(ctx, CreateBookOptions{
		Title:           params.Title,
		Author:          params.Author,
		ISBN:            params.ISBN,
		Barcode:         params.Barcode,
		Genre:           params.Genre,
		Category:        params.Category,
		RackNo:          params.RackNo,
		ShelfNo:         params.ShelfNo,
		Edition:         params.Edition,
		PublicationYear: params.PublicationYear,
		Publisher:       params.Publisher,
		Pages:           params.Pages,
		Description:     params.Description,
		TotalCopies:     params.TotalCopies,
	})
	if err != nil {
		return err
	}

	if user, ok := auth.UserFromContext(c); ok {
		ip := c.RealIP()
		details := "Added book: " + book.Title
		h.activityService.Record(ctx, activity.Entry{
			Action:    models.ActionAddBook,
			UserID:    &user.ID,
			BookID:    &book.ID,
			Details:   &details,
			IPAddress: &ip,
		})
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.catalogService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	columns := []string{}
	setString := func(dst *string, src *string, column string) {
		if src != nil {
			*dst = *src
			columns = append(columns, column)
		}
	}
	setString(&book.Title, params.Title, "title")
	setString(&book.Author, params.Author, "author")
	setString(&book.Genre, params.Genre, "genre")
	setString(&book.RackNo, params.RackNo, "rack_no")
	if params.Category != nil {
		book.Category = params.Category
		columns = append(columns, "category")
	}
	if params.ShelfNo != nil {
		book.ShelfNo = params.ShelfNo
		columns = append(columns, "shelf_no")
	}
	if params.Edition != nil {
		book.Edition = params.Edition
		columns = append(columns, "edition")
	}
	if params.PublicationYear != nil {
		book.PublicationYear = params.PublicationYear
		columns = append(columns, "publication_year")
	}
	if params.Publisher != nil {
		book.Publisher = params.Publisher
		columns = append(columns, "publisher")
	}
	if params.Pages != nil {
		book.Pages = params.Pages
		columns = append(columns, "pages")
	}
	if params.Description != nil {
		book.Description = params.Description
		columns = append(columns, "description")
	}
	if params.Status != nil {
		book.Status = *params.Status
		columns = append(columns, "status")
	}
	if params.TotalCopies != nil {
		// Adjust the available count by the same delta so outstanding
		// loans stay accounted for.
		delta := *params.TotalCopies - book.TotalCopies
		book.TotalCopies = *params.TotalCopies
		book.AvailableCopies += delta
		if book.AvailableCopies < 0 {
			return errcodes.ValidationError("total_copies cannot go below the number of copies on loan")
		}
		columns = append(columns, "total_copies", "available_copies")
	}

	if err := h.catalogService.Update(ctx, book, UpdateOptions{Columns: columns}); err != nil {
		return err
	}

	if user, ok := auth.UserFromContext(c); ok {
		ip := c.RealIP()
		details := "Edited book: " + book.Title
		h.activityService.Record(ctx, activity.Entry{
			Action:    models.ActionEditBook,
			UserID:    &user.ID,
			BookID:    &book.ID,
			Details:   &details,
			IPAddress: &ip,
		})
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.catalogService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	if err := h.catalogService.Delete(ctx, book.ID); err != nil {
		return err
	}

	if user, ok := auth.UserFromContext(c); ok {
		ip := c.RealIP()
		details := "Deleted book: " + book.Title
		h.activityService.Record(ctx, activity.Entry{
			Action:    models.ActionDeleteBook,
			UserID:    &user.ID,
			Details:   &details,
			IPAddress: &ip,
		})
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Book deleted"}))
}
