package handlers

import (
	"encoding/base64"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-docs/internal/consultation"
	"github.com/nexconsult/cnpj-docs/internal/models"
	"github.com/nexconsult/cnpj-docs/internal/services"
	"github.com/sirupsen/logrus"
)

// ConsultHandler serves the document download endpoints
type ConsultHandler struct {
	consultService services.ConsultService
	packager       *services.Packager
	logger         *logrus.Logger
}

// NewConsultHandler creates a new consult handler
func NewConsultHandler(consultService services.ConsultService, packager *services.Packager, logger *logrus.Logger) *ConsultHandler {
	return &ConsultHandler{
		consultService: consultService,
		packager:       packager,
		logger:         logger,
	}
}

// PostConsult handles a consultation with the CNPJ in the body
// @Summary Download the registration documents of a CNPJ
// @Description Consults the Receita Federal and returns a ZIP with Cartao_CNPJ.pdf and, when available, QSA.pdf
// @Tags Consult
// @Accept json
// @Produce application/zip
// @Produce json
// @Param request body models.ConsultRequest true "CNPJ to consult"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 428 {object} models.ChallengeResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /api/consult [post]
func (h *ConsultHandler) PostConsult(c *gin.Context) {
	var req models.ConsultRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CNPJ) == "" {
		h.logger.WithField("request_id", c.GetString("request_id")).Warn("Consult request without CNPJ")

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Missing CNPJ",
			Message:   "CNPJ não fornecido",
			Code:      "MISSING_CNPJ",
			Stage:     string(consultation.StageInput),
			RequestID: c.GetString("request_id"),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.consult(c, req.CNPJ)
}

// GetConsult handles a consultation with the CNPJ in the path
// @Summary Download the registration documents of a CNPJ
// @Description Same as POST /api/consult with the CNPJ in the path; punctuation is accepted
// @Tags Consult
// @Produce application/zip
// @Produce json
// @Param cnpj path string true "CNPJ number" example(11222333000181)
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 428 {object} models.ChallengeResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /api/v1/consult/{cnpj} [get]
func (h *ConsultHandler) GetConsult(c *gin.Context) {
	h.consult(c, c.Param("cnpj"))
}

func (h *ConsultHandler) consult(c *gin.Context, raw string) {
	requestID := c.GetString("request_id")
	out := h.consultService.Consult(c.Request.Context(), raw)

	switch out.Variant {
	case consultation.VariantSuccess:
		h.sendArchive(c, out)

	case consultation.VariantChallenge:
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       out.CNPJ,
		}).Warn("Consultation blocked by challenge")

		resp := models.ChallengeResponse{
			Error:     "Challenge required",
			Message:   "A Receita Federal exige a resolução de um captcha para esta consulta",
			Code:      consultation.KindChallengeRequired.Code(),
			RequestID: requestID,
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		}
		if out.Challenge != nil && len(out.Challenge.Image) > 0 {
			resp.ChallengeImage = base64.StdEncoding.EncodeToString(out.Challenge.Image)
			resp.ContentType = out.Challenge.ContentType
		}
		c.JSON(http.StatusPreconditionRequired, resp)

	default:
		kind := out.Kind()
		status := StatusForKind(kind)
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"cnpj":       out.CNPJ,
			"kind":       kind.String(),
			"stage":      out.Stage(),
			"status":     status,
		}).Warn("Consultation failed")

		c.JSON(status, models.ErrorResponse{
			Error:     kind.String(),
			Message:   failureMessage(out.Err),
			Code:      kind.Code(),
			Stage:     string(out.Stage()),
			RequestID: requestID,
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	}
}

func (h *ConsultHandler) sendArchive(c *gin.Context, out consultation.Outcome) {
	bundle, data, err := h.packager.Package(c.Request.Context(), out)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"cnpj":       out.CNPJ,
			"error":      err.Error(),
		}).Error("Failed to build archive")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "Failed to build the document archive",
			Code:      "ARCHIVE_ERROR",
			RequestID: c.GetString("request_id"),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": bundle.FileName()}))
	// Percent-encoded, company names are not ASCII.
	c.Header("X-Company-Name", url.PathEscape(bundle.Name))
	c.Header("X-Roster-Available", strconv.FormatBool(out.RosterAvailable()))
	c.Header("X-Backend", h.consultService.Backend())
	c.Data(http.StatusOK, "application/zip", data)
}

// StatusForKind maps a failure kind to its HTTP status.
func StatusForKind(kind consultation.Kind) int {
	switch kind {
	case consultation.KindInputInvalid, consultation.KindUpstream:
		return http.StatusBadRequest
	case consultation.KindNotFound:
		return http.StatusNotFound
	case consultation.KindChallengeRequired:
		return http.StatusPreconditionRequired
	case consultation.KindNavigationTimeout, consultation.KindSubmitTimeout:
		return http.StatusGatewayTimeout
	case consultation.KindBrowserStartFailure, consultation.KindBusy:
		return http.StatusServiceUnavailable
	case consultation.KindElementNotFound, consultation.KindLinkNotFound:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func failureMessage(err *consultation.Error) string {
	if err == nil {
		return "Consultation failed"
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Kind.String()
}
