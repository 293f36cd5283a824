package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/repository"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-gonic/gin"
)

// Listing bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// ContactHandler serves the caller's contact list.
type ContactHandler struct {
	contacts service.ContactService
}

// NewContactHandler creates a new ContactHandler instance.
func NewContactHandler(contacts service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// ContactRequest is the create payload.
type ContactRequest struct {
	Firstname         string  `json:"firstname" binding:"required,max=50"`
	Lastname          string  `json:"lastname" binding:"required,max=50"`
	Email             string  `json:"email" binding:"required,email,max=100"`
	Phone             string  `json:"phone" binding:"required,max=30"`
	Birth             string  `json:"birth" binding:"required,datetime=2006-01-02" example:"1990-06-15"`
	AdditionalDetails *string `json:"additional_details" binding:"omitempty,max=500"`
}

// ContactUpdateRequest carries the attributes an update may revise. Names
// and phone are fixed at creation.
type ContactUpdateRequest struct {
	Email             string  `json:"email" binding:"required,email,max=100"`
	Birth             string  `json:"birth" binding:"required,datetime=2006-01-02" example:"1990-06-15"`
	AdditionalDetails *string `json:"additional_details" binding:"omitempty,max=500"`
}

type contactPayload interface {
	fields() (repository.ContactFields, error)
}

// ContactResponse is the public view of a contact.
type ContactResponse struct {
	ID                int64     `json:"id"`
	Firstname         string    `json:"firstname"`
	Lastname          string    `json:"lastname"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Birth             string    `json:"birth" example:"1990-06-15"`
	AdditionalDetails *string   `json:"additional_details"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type listQuery struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
}

type birthdaysQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=366"`
}

func newContactResponse(c *models.Contact) ContactResponse {
	return ContactResponse{
		ID:                c.ID,
		Firstname:         c.Firstname,
		Lastname:          c.Lastname,
		Email:             c.Email,
		Phone:             c.Phone,
		Birth:             c.Birth.Format(models.DateLayout),
		AdditionalDetails: c.AdditionalDetails,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func newContactResponses(contacts []models.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, newContactResponse(&contacts[i]))
	}
	return out
}

func (r ContactRequest) fields() (repository.ContactFields, error) {
	birth, err := time.Parse(models.DateLayout, r.Birth)
	if err != nil {
		return repository.ContactFields{}, err
	}
	return repository.ContactFields{
		Firstname:         r.Firstname,
		Lastname:          r.Lastname,
		Email:             r.Email,
		Phone:             r.Phone,
		Birth:             birth,
		AdditionalDetails: r.AdditionalDetails,
	}, nil
}

func (r ContactUpdateRequest) fields() (repository.ContactFields, error) {
	birth, err := time.Parse(models.DateLayout, r.Birth)
	if err != nil {
		return repository.ContactFields{}, err
	}
	return repository.ContactFields{
		Email:             r.Email,
		Birth:             birth,
		AdditionalDetails: r.AdditionalDetails,
	}, nil
}

// List godoc
// @Summary All contacts
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param offset query int false "Offset" minimum(0)
// @Param limit query int false "Limit" minimum(1) maximum(500)
// @Success 200 {array} ContactResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}

	contacts, err := h.contacts.List(c.Request.Context(), ownerID(c), repository.Page{Offset: q.Offset, Limit: q.Limit})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContactResponses(contacts))
}

// GetByID godoc
// @Summary Contact by id
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} ContactResponse
// @Failure 404 {object} ErrorResponse
// @Router /contacts/search_by_id/{id} [get]
func (h *ContactHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	contact, err := h.contacts.FindByID(c.Request.Context(), id, ownerID(c))
	h.respondContact(c, http.StatusOK, contact, err)
}

// SearchByLastname godoc
// @Summary Contacts by last name
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param lastname path string true "Last name"
// @Success 200 {array} ContactResponse
// @Router /contacts/search_by_lastname/{lastname} [get]
func (h *ContactHandler) SearchByLastname(c *gin.Context) {
	contacts, err := h.contacts.SearchByLastname(c.Request.Context(), c.Param("lastname"), ownerID(c))
	h.respondContacts(c, contacts, err)
}

// SearchByFirstname godoc
// @Summary Contacts by first name
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param firstname path string true "First name"
// @Success 200 {array} ContactResponse
// @Router /contacts/search_by_firstname/{firstname} [get]
func (h *ContactHandler) SearchByFirstname(c *gin.Context) {
	contacts, err := h.contacts.SearchByFirstname(c.Request.Context(), c.Param("firstname"), ownerID(c))
	h.respondContacts(c, contacts, err)
}

// SearchByEmail godoc
// @Summary Contacts by email
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param email path string true "Email"
// @Success 200 {array} ContactResponse
// @Router /contacts/search_by_email/{email} [get]
func (h *ContactHandler) SearchByEmail(c *gin.Context) {
	contacts, err := h.contacts.SearchByEmail(c.Request.Context(), c.Param("email"), ownerID(c))
	h.respondContacts(c, contacts, err)
}

// Birthdays godoc
// @Summary Upcoming birthdays
// @Description Contacts whose birthday falls between today and today plus days (default 7)
// @Tags contacts
// @Security BearerAuth
// @Produce json
// @Param days query int false "Look-ahead window in days" minimum(1) maximum(366)
// @Success 200 {array} ContactResponse
// @Router /contacts/birthdays [get]
func (h *ContactHandler) Birthdays(c *gin.Context) {
	var q birthdaysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := h.contacts.BirthdaysWithin(c.Request.Context(), q.Days, ownerID(c))
	h.respondContacts(c, contacts, err)
}

// Create godoc
// @Summary Create contact
// @Tags contacts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Contact"
// @Success 201 {object} ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	fields, ok := bindContact(c, &ContactRequest{})
	if !ok {
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), fields, ownerID(c))
	h.respondContact(c, http.StatusCreated, contact, err)
}

// Update godoc
// @Summary Update contact
// @Description Revises email, birth and additional_details. Names and phone cannot change.
// @Tags contacts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Contact ID"
// @Param request body ContactUpdateRequest true "Revised attributes"
// @Success 200 {object} ContactResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	fields, ok := bindContact(c, &ContactUpdateRequest{})
	if !ok {
		return
	}

	contact, err := h.contacts.Update(c.Request.Context(), id, fields, ownerID(c))
	h.respondContact(c, http.StatusOK, contact, err)
}

// Delete godoc
// @Summary Delete contact
// @Tags contacts
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	contact, err := h.contacts.Remove(c.Request.Context(), id, ownerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if contact == nil {
		RespondError(c, http.StatusNotFound, "Not Found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContactHandler) respondContact(c *gin.Context, status int, contact *models.Contact, err error) {
	if errors.Is(err, service.ErrConflict) {
		RespondError(c, http.StatusConflict, "Email exists!")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if contact == nil {
		RespondError(c, http.StatusNotFound, "Not Found")
		return
	}
	c.JSON(status, newContactResponse(contact))
}

func (h *ContactHandler) respondContacts(c *gin.Context, contacts []models.Contact, err error) {
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContactResponses(contacts))
}

func bindContact(c *gin.Context, req contactPayload) (repository.ContactFields, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return repository.ContactFields{}, false
	}
	fields, err := req.fields()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "birth must be a YYYY-MM-DD date")
		return repository.ContactFields{}, false
	}
	return fields, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func ownerID(c *gin.Context) int64 {
	return middleware.CurrentUser(c).ID
}
