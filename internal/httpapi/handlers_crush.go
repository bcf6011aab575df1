package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/webatelier/platform/internal/domain/event"
	"github.com/webatelier/platform/internal/domain/journey"
	"github.com/webatelier/platform/internal/domain/profile"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/middleware"
)

// --- profiles ---

type profilePayload struct {
	Headline  string   `json:"headline"`
	Bio       string   `json:"bio"`
	Age       int      `json:"age"`
	City      string   `json:"city"`
	PhotoKey  string   `json:"photo_key"`
	Interests []string `json:"interests"`
}

func (p profilePayload) toDomain(userID string) profile.Profile {
	return profile.Profile{
		UserID:    userID,
		Headline:  p.Headline,
		Bio:       p.Bio,
		Age:       p.Age,
		City:      p.City,
		PhotoKey:  p.PhotoKey,
		Interests: p.Interests,
	}
}

func (h *handler) browseProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.cfg.Profiles.Browse(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

func (h *handler) createProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var p profilePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	created, err := h.cfg.Profiles.CreateProfile(r.Context(), p.toDomain(userID))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) myProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.cfg.Profiles.GetProfileByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var p profilePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	updated, err := h.cfg.Profiles.UpdateProfile(r.Context(), userID, p.toDomain(userID))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// --- coaches ---

type coachPayload struct {
	Bio             string   `json:"bio"`
	Specialties     []string `json:"specialties"`
	HourlyRateCents int64    `json:"hourly_rate_cents"`
	PhotoKey        string   `json:"photo_key"`
}

func (h *handler) listCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.cfg.Profiles.ListCoaches(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, coaches)
}

func (h *handler) applyAsCoach(w http.ResponseWriter, r *http.Request) {
	var p coachPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	c, err := h.cfg.Profiles.ApplyAsCoach(r.Context(), profile.Coach{
		UserID:          middleware.GetUserID(r.Context()),
		Bio:             p.Bio,
		Specialties:     p.Specialties,
		HourlyRateCents: p.HourlyRateCents,
		PhotoKey:        p.PhotoKey,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// --- events ---

type eventPayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	// Organizers see drafts too.
	role := middleware.GetUserRole(r.Context())
	publishedOnly := role != "coach" && role != "admin"
	events, err := h.cfg.Events.List(r.Context(), publishedOnly)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var p eventPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	created, err := h.cfg.Events.Create(r.Context(), event.Event{
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		StartsAt:    p.StartsAt,
		Capacity:    p.Capacity,
		CreatedBy:   middleware.GetUserID(r.Context()),
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) getEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.cfg.Events.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	var p eventPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	updated, err := h.cfg.Events.Update(r.Context(), event.Event{
		ID:          mux.Vars(r)["id"],
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		StartsAt:    p.StartsAt,
		Capacity:    p.Capacity,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) publishEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.cfg.Events.Publish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *handler) registerForEvent(w http.ResponseWriter, r *http.Request) {
	reg, err := h.cfg.Events.Register(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reg)
}

func (h *handler) cancelRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Events.Cancel(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context())); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *handler) eventAvailability(w http.ResponseWriter, r *http.Request) {
	a, err := h.cfg.Events.Availability(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *handler) eventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.cfg.Events.Registrations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, regs)
}

// --- journeys ---

type journeyPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (h *handler) listJourneys(w http.ResponseWriter, r *http.Request) {
	role := middleware.GetUserRole(r.Context())
	activeOnly := role != "admin"
	journeys, err := h.cfg.Journeys.ListJourneys(r.Context(), activeOnly)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, journeys)
}

func (h *handler) createJourney(w http.ResponseWriter, r *http.Request) {
	var p journeyPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	j, err := h.cfg.Journeys.CreateJourney(r.Context(), journey.Journey{
		Title:       p.Title,
		Description: p.Description,
		Active:      p.Active,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, j)
}

type journeyResponse struct {
	Journey  journey.Journey   `json:"journey"`
	Chapters []journey.Chapter `json:"chapters"`
}

func (h *handler) getJourney(w http.ResponseWriter, r *http.Request) {
	j, chapters, err := h.cfg.Journeys.GetJourney(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, journeyResponse{Journey: j, Chapters: chapters})
}

type chapterPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DeadlineDays int    `json:"deadline_days"`
}

func (h *handler) addChapter(w http.ResponseWriter, r *http.Request) {
	var p chapterPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	c, err := h.cfg.Journeys.AddChapter(r.Context(), journey.Chapter{
		JourneyID:    mux.Vars(r)["id"],
		Title:        p.Title,
		Description:  p.Description,
		DeadlineDays: p.DeadlineDays,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

type challengePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

func (h *handler) addChallenge(w http.ResponseWriter, r *http.Request) {
	var p challengePayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	c, err := h.cfg.Journeys.AddChallenge(r.Context(), journey.Challenge{
		ChapterID:   mux.Vars(r)["id"],
		Title:       p.Title,
		Description: p.Description,
		Points:      p.Points,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

type rewardPayload struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (h *handler) addReward(w http.ResponseWriter, r *http.Request) {
	var p rewardPayload
	if err := httputil.DecodeJSONBody(r, &p); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	rw, err := h.cfg.Journeys.AddReward(r.Context(), journey.Reward{
		ChapterID: mux.Vars(r)["id"],
		Name:      p.Name,
		Kind:      p.Kind,
		Value:     p.Value,
	})
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rw)
}

func (h *handler) enroll(w http.ResponseWriter, r *http.Request) {
	e, err := h.cfg.Journeys.Enroll(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

type completionResponse struct {
	Completion journey.Completion `json:"completion"`
	Rewards    []journey.Reward   `json:"rewards,omitempty"`
}

func (h *handler) completeChallenge(w http.ResponseWriter, r *http.Request) {
	c, rewards, err := h.cfg.Journeys.CompleteChallenge(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, completionResponse{Completion: c, Rewards: rewards})
}

func (h *handler) journeyProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.cfg.Journeys.Progress(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
