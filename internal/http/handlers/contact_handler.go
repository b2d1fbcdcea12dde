// Contact HTTP handlers.
//
// This file exposes the public contact form and the admin inbox:
//   - POST   /contacts              (public submission)
//   - GET    /contacts              (paginated, optional status filter)
//   - GET    /contacts/unread       (unread only, with count)
//   - GET    /contacts/stats        (counters)
//   - GET    /contacts/{id}         (read one, marks it read)
//   - PATCH  /contacts/{id}/status  (set handling status)
//   - PATCH  /contacts/{id}/read    (mark read)
//   - DELETE /contacts/{id}         (delete)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/services"
	"github.com/tbourn/go-portfolio-backend/internal/utils"
)

//
// DTOs
//

// CreateContactRequest is the public contact form payload.
type CreateContactRequest struct {
	Name             string  `json:"name" example:"Sara Ali"`
	Email            string  `json:"email" example:"sara@example.com"`
	Phone            string  `json:"phone" example:"+971500000000"`
	RequestedService *string `json:"requestedService,omitempty" example:"Website redesign"`
	Notes            *string `json:"notes,omitempty" example:"Looking to start next month"`
}

// ContactReceipt acknowledges a submission.
type ContactReceipt struct {
	ID          string    `json:"id" format:"uuid"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// UpdateContactStatusRequest sets the handling status.
type UpdateContactStatusRequest struct {
	Status string `json:"status" example:"in-progress" enums:"pending,in-progress,completed,cancelled"`
}

//
// Handlers
//

// CreateContact godoc
// @ID          createContact
// @Summary     Submit a contact request
// @Description Stores a contact request. One request per email is accepted every 24 hours.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateContactRequest  true  "Contact request"
//
// @Success     201  {object}  handlers.Envelope{data=handlers.ContactReceipt}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or duplicate"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [post]
func (h *Handlers) CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	ct, err := h.contacts.Create(c.Request.Context(), services.ContactInput{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		RequestedService: req.RequestedService,
		Notes:            req.Notes,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusCreated,
		"Your request has been submitted successfully. We will contact you soon!",
		ContactReceipt{ID: ct.ID, SubmittedAt: ct.CreatedAt})
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contact requests
// @Description Returns contact requests newest first. limit is capped at 100.
// @Tags        Contacts
// @Produce     json
//
// @Param       page    query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit   query  int     false  "Items per page"  minimum(1) maximum(100) default(10)
// @Param       status  query  string  false  "Status filter"   Enums(pending, in-progress, completed, cancelled)
//
// @Success     200  {object}  handlers.ContactListResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultContactPageSize)

	res, err := h.contacts.List(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ContactListResponse{
		Success:    true,
		Message:    "Contact requests fetched successfully",
		Data:       res.Items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// ListUnreadContacts godoc
// @ID          listUnreadContacts
// @Summary     List unread contact requests
// @Tags        Contacts
// @Produce     json
//
// @Success     200  {object}  handlers.UnreadContactsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/unread [get]
func (h *Handlers) ListUnreadContacts(c *gin.Context) {
	items, err := h.contacts.Unread(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UnreadContactsResponse{
		Success: true,
		Message: "Unread contacts fetched successfully",
		Data:    items,
		Count:   len(items),
	})
}

// ContactStats godoc
// @ID          contactStats
// @Summary     Contact inbox statistics
// @Tags        Contacts
// @Produce     json
//
// @Success     200  {object}  handlers.Envelope{data=services.ContactStats}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/stats [get]
func (h *Handlers) ContactStats(c *gin.Context) {
	st, err := h.contacts.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Contact statistics fetched successfully", st)
}

// GetContact godoc
// @ID          getContact
// @Summary     Get a contact request
// @Description Returns one contact request and marks it read.
// @Tags        Contacts
// @Produce     json
//
// @Param       id  path  string  true  "Contact ID"  format(uuid)
//
// @Success     200  {object}  handlers.Envelope{data=domain.Contact}
// @Failure     404  {object}  handlers.ErrorResponse  "Contact request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/{id} [get]
func (h *Handlers) GetContact(c *gin.Context) {
	ct, err := h.contacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Contact request fetched successfully", ct)
}

// UpdateContactStatus godoc
// @ID          updateContactStatus
// @Summary     Set the status of a contact request
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Contact ID"  format(uuid)
// @Param       body  body  handlers.UpdateContactStatusRequest  true  "New status"
//
// @Success     200  {object}  handlers.Envelope{data=domain.Contact}
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     404  {object}  handlers.ErrorResponse  "Contact request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/{id}/status [patch]
func (h *Handlers) UpdateContactStatus(c *gin.Context) {
	var req UpdateContactStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	ct, err := h.contacts.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Contact status updated successfully", ct)
}

// MarkContactRead godoc
// @ID          markContactRead
// @Summary     Mark a contact request as read
// @Tags        Contacts
// @Produce     json
//
// @Param       id  path  string  true  "Contact ID"  format(uuid)
//
// @Success     200  {object}  handlers.Envelope{data=domain.Contact}
// @Failure     404  {object}  handlers.ErrorResponse  "Contact request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/{id}/read [patch]
func (h *Handlers) MarkContactRead(c *gin.Context) {
	ct, err := h.contacts.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Contact marked as read", ct)
}

// DeleteContact godoc
// @ID          deleteContact
// @Summary     Delete a contact request
// @Tags        Contacts
//
// @Param       id  path  string  true  "Contact ID"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Contact request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/{id} [delete]
func (h *Handlers) DeleteContact(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
