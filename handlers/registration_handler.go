package handlers

import (
	"net/http"

	"github.com/arenaops/tournament-registration/middleware"
	"github.com/arenaops/tournament-registration/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
	archiveService      *services.RosterArchiveService
}

func NewRegistrationHandler(rs *services.RegistrationService, as *services.RosterArchiveService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: rs,
		archiveService:      as,
	}
}

type registerRequest struct {
	TeamID          *int   `json:"team_id,omitempty"`
	SelectedPlayers []int  `json:"selected_players,omitempty"`
	BackupPlayers   []int  `json:"backup_players,omitempty"`
	JoinWaitlist    bool   `json:"join_waitlist"`
	OfferToken      string `json:"offer_token,omitempty"`
}

// Register godoc
// @Summary Подать заявку на участие в турнире
// @Tags registrations
// @Description Регистрирует пользователя (или команду) на турнир. При нехватке слотов
// @Description возвращает предложение листа ожидания либо ставит в лист ожидания.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body registerRequest true "Параметры регистрации"
// @Success 201 {object} map[string]interface{} "Заявка подтверждена или поставлена в лист ожидания"
// @Success 200 {object} map[string]interface{} "Предложение листа ожидания"
// @Failure 400 {object} map[string]string "Ошибка валидации или бизнес-логики"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Бан по игровому идентификатору / регистрация закрыта"
// @Failure 404 {object} map[string]string "Турнир, пользователь или команда не найдены"
// @Failure 409 {object} map[string]string "Конфликт (уже зарегистрирован, турнир или лист ожидания полон)"
// @Failure 503 {object} map[string]string "Слот занят конкурирующим запросом, повторите"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/register [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input registerRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.registrationService.Register(r.Context(), services.RegisterInput{
		TournamentID:    tournamentID,
		UserID:          currentUserID,
		TeamID:          input.TeamID,
		SelectedPlayers: input.SelectedPlayers,
		BackupPlayers:   input.BackupPlayers,
		JoinWaitlist:    input.JoinWaitlist,
		OfferToken:      input.OfferToken,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	switch result.Outcome {
	case services.OutcomeWaitlistOffer:
		err = writeJSON(w, http.StatusOK, jsonResponse{
			"outcome": result.Outcome,
			"offer":   result.Offer,
		}, nil)
	default:
		err = writeJSON(w, http.StatusCreated, jsonResponse{
			"outcome":      result.Outcome,
			"registration": result.Registration,
		}, nil)
	}
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Cancel godoc
// @Summary Отменить свою заявку/регистрацию на турнир
// @Tags registrations
// @Description Регистрант или капитан команды отменяет заявку. Освободившийся слот
// @Description синхронно передается первому в листе ожидания.
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 204 "Заявка отменена"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Заявка уже отменена"
// @Security BearerAuth
// @Router /registrations/{registrationID} [delete]
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	registrationID, err := readIDParam(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.registrationService.Cancel(r.Context(), registrationID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckIn godoc
// @Summary Отметить явку по подтвержденной заявке
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} map[string]interface{} "Явка отмечена"
// @Failure 400 {object} map[string]string "Явка недоступна для этой заявки"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Явка уже отмечена"
// @Security BearerAuth
// @Router /registrations/{registrationID}/check-in [post]
func (h *RegistrationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	registrationID, err := readIDParam(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	registration, err := h.registrationService.CheckIn(r.Context(), registrationID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRegistrations godoc
// @Summary Список подтвержденных регистраций турнира
// @Tags registrations
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Регистрации в порядке номеров слотов"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID}/registrations [get]
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListConfirmedRegistrations(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WaitlistStatus godoc
// @Summary Состояние листа ожидания турнира
// @Tags registrations
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Записи листа ожидания, счетчики, остаток емкости"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID}/waitlist [get]
func (h *RegistrationHandler) WaitlistStatus(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.registrationService.GetWaitlistStatus(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"waitlist": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchiveRoster godoc
// @Summary Выгрузить снапшот подтвержденного состава в объектное хранилище
// @Tags registrations
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{} "Снапшот загружен"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/roster/archive [post]
func (h *RegistrationHandler) ArchiveRoster(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	result, err := h.archiveService.Archive(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"archive": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
