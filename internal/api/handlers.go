package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"bezero/internal/models"
)

func pathID(r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryInt64(r *http.Request, name string) int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	v, _ := strconv.ParseInt(raw, 10, 64)
	return v
}

// queryBefore parses the history cursor; zero time means "from the top".
func queryBefore(r *http.Request) time.Time {
	raw := strings.TrimSpace(r.URL.Query().Get("before"))
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func queryDate(r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.Nickname = strings.TrimSpace(body.Nickname)
	if body.Email == "" || body.Nickname == "" || len(body.Password) < 8 {
		writeError(w, http.StatusBadRequest, "email, nickname and a password of at least 8 characters are required")
		return
	}

	user, err := s.svc.Users.Register(r.Context(), body.Email, body.Password, body.Nickname)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	token, user, err := s.svc.Users.Login(r.Context(), strings.TrimSpace(strings.ToLower(body.Email)), body.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// --- profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	user, err := s.svc.Users.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		Nickname string `json:"nickname"`
		Bio      string `json:"bio"`
		HomeCity string `json:"home_city"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Nickname) == "" {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}

	if err := s.svc.Users.UpdateProfile(r.Context(), identity.UserID, body.Nickname, body.Bio, body.HomeCity); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// --- catalog ---

func (s *Server) handleListCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": s.svc.Tickets.ListCities(r.Context())})
}

func (s *Server) handleListGuestHouses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"guest_houses": s.svc.Stays.ListGuestHouses(r.Context())})
}

func (s *Server) handleRoomAvailability(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(r, "roomID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	start, ok := queryDate(r, "start")
	if !ok {
		writeError(w, http.StatusBadRequest, "start is required, format YYYY-MM-DD")
		return
	}
	days := queryInt(r, "days", 14)

	availability, err := s.svc.Stays.GetAvailability(r.Context(), roomID, start, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"availability": availability})
}

// --- tickets ---

func (s *Server) handlePurchaseTicket(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		AirshipID   int64     `json:"airship_id"`
		FromCityID  int64     `json:"from_city_id"`
		ToCityID    int64     `json:"to_city_id"`
		Price       int64     `json:"price"`
		DepartureAt time.Time `json:"departure_at"`
		ArrivalAt   time.Time `json:"arrival_at"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	ticket := &models.Ticket{
		UserID:      identity.UserID,
		AirshipID:   body.AirshipID,
		FromCityID:  body.FromCityID,
		ToCityID:    body.ToCityID,
		Price:       body.Price,
		DepartureAt: body.DepartureAt,
		ArrivalAt:   body.ArrivalAt,
	}
	if err := s.svc.Tickets.Purchase(r.Context(), ticket); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	tickets, err := s.svc.Tickets.ListUserTickets(r.Context(), identity.UserID,
		queryInt(r, "limit", models.DefaultPageSize), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}
	ticket, err := s.svc.Tickets.GetTicket(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleCancelTicket(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}
	var body struct {
		Version int64 `json:"version"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := s.svc.Tickets.Cancel(r.Context(), identity.UserID, id, body.Version); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Ручной перевод билета по расписанию, только для менеджеров.
func (s *Server) handleAdvanceTicket(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if !identity.IsManager() {
		writeError(w, http.StatusForbidden, "manager role required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := s.svc.Tickets.Advance(r.Context(), id, body.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

// --- stays ---

func (s *Server) handleReserveStay(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		RoomID   int64  `json:"room_id"`
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	checkIn, err := time.Parse("2006-01-02", body.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse("2006-01-02", body.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "check_out must be YYYY-MM-DD")
		return
	}

	stay := &models.RoomStay{
		UserID:   identity.UserID,
		RoomID:   body.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
	if err := s.svc.Stays.Reserve(r.Context(), stay); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stay)
}

func (s *Server) handleListStays(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	stays, err := s.svc.Stays.ListUserStays(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stays": stays})
}

func (s *Server) stayTransition(w http.ResponseWriter, r *http.Request,
	do func(userID, stayID, version int64) error, status string) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid stay id")
		return
	}
	var body struct {
		Version int64 `json:"version"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := do(identity.UserID, id, body.Version); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	s.stayTransition(w, r, func(userID, stayID, version int64) error {
		return s.svc.Stays.CheckIn(r.Context(), userID, stayID, version)
	}, "checked_in")
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	s.stayTransition(w, r, func(userID, stayID, version int64) error {
		return s.svc.Stays.CheckOut(r.Context(), userID, stayID, version)
	}, "checked_out")
}

func (s *Server) handleCancelStay(w http.ResponseWriter, r *http.Request) {
	s.stayTransition(w, r, func(userID, stayID, version int64) error {
		return s.svc.Stays.Cancel(r.Context(), userID, stayID, version)
	}, "cancelled")
}

func (s *Server) handleRoommates(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	houseID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guest house id")
		return
	}
	roommates, err := s.svc.Stays.GetRoommates(r.Context(), identity.UserID, houseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roommates": roommates})
}

// --- guest-house chat ---

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	houseID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guest house id")
		return
	}
	messages, err := s.svc.Chats.History(r.Context(), identity.UserID, houseID,
		queryBefore(r), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handlePostChatMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	houseID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guest house id")
		return
	}
	var body struct {
		Kind   string `json:"kind"`
		Body   string `json:"body"`
		CardID int64  `json:"card_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Kind == "" {
		body.Kind = models.MessageText
	}

	msg, err := s.svc.Chats.PostMessage(r.Context(), identity.UserID, houseID, body.Kind, body.Body, body.CardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleDeleteChatMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if err := s.svc.Chats.DeleteMessage(r.Context(), identity.UserID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cards": s.svc.Chats.ListCards(r.Context(), queryInt64(r, "city_id")),
	})
}

func (s *Server) handleDrawCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.svc.Chats.DrawCard(r.Context(), queryInt64(r, "city_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// --- direct messages ---

func (s *Server) handleDMRequest(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		RecipientID int64 `json:"recipient_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	room, err := s.svc.DMs.Request(r.Context(), identity.UserID, body.RecipientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleListDMRooms(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	rooms, err := s.svc.DMs.ListRooms(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleGetDMRoom(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	room, err := s.svc.DMs.GetRoom(r.Context(), identity.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleDMRespond(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		Version int64 `json:"version"`
		Accept  bool  `json:"accept"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := s.svc.DMs.Respond(r.Context(), identity.UserID, mux.Vars(r)["id"], body.Version, body.Accept); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "responded"})
}

func (s *Server) handleSendDM(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	msg, err := s.svc.DMs.Send(r.Context(), identity.UserID, mux.Vars(r)["id"], body.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleDMHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	messages, err := s.svc.DMs.History(r.Context(), identity.UserID, mux.Vars(r)["id"],
		queryBefore(r), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleDMUnread(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	unread, err := s.svc.DMs.Unread(r.Context(), identity.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": unread})
}

func (s *Server) handleEndDM(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if err := s.svc.DMs.End(r.Context(), identity.UserID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (s *Server) handleDeleteDM(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if err := s.svc.DMs.DeleteMessage(r.Context(), identity.UserID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- points ---

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	balance, err := s.svc.Points.Balance(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handlePointHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	transactions, err := s.svc.Points.History(r.Context(), identity.UserID,
		queryInt(r, "limit", models.DefaultPageSize), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (s *Server) handleExportLedger(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if !identity.IsManager() {
		writeError(w, http.StatusForbidden, "managers only")
		return
	}

	data, err := s.svc.Points.ExportLedger(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeXLSX(w, "ledger.xlsx", data)
}

func (s *Server) handleExportStays(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	if !identity.IsManager() {
		writeError(w, http.StatusForbidden, "managers only")
		return
	}

	start, ok := queryDate(r, "start")
	if !ok {
		writeError(w, http.StatusBadRequest, "start is required, format YYYY-MM-DD")
		return
	}
	end, ok := queryDate(r, "end")
	if !ok {
		writeError(w, http.StatusBadRequest, "end is required, format YYYY-MM-DD")
		return
	}

	data, err := s.svc.Points.ExportStays(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeXLSX(w, "stays.xlsx", data)
}

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- diaries and questionnaires ---

func (s *Server) handleCreateDiary(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	var body struct {
		StayID int64  `json:"stay_id"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		Mood   string `json:"mood"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Body) == "" {
		writeError(w, http.StatusBadRequest, "title and body are required")
		return
	}

	entry, err := s.svc.Diaries.Create(r.Context(), &models.DiaryEntry{
		UserID: identity.UserID,
		StayID: body.StayID,
		Title:  body.Title,
		Body:   body.Body,
		Mood:   body.Mood,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListDiary(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	entries, err := s.svc.Diaries.List(r.Context(), identity.UserID,
		queryInt(r, "limit", models.DefaultPageSize), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleGetDiary(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	entry, err := s.svc.Diaries.Get(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateDiary(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Mood  string `json:"mood"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := s.svc.Diaries.Update(r.Context(), identity.UserID, id, body.Title, body.Body, body.Mood); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteDiary(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	if err := s.svc.Diaries.Delete(r.Context(), identity.UserID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": s.svc.Diaries.ListQuestions(r.Context(), queryInt64(r, "city_id")),
	})
}

func (s *Server) handleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Body) == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	answer, err := s.svc.Diaries.Answer(r.Context(), identity.UserID, id, body.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

func (s *Server) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	answers, err := s.svc.Diaries.ListAnswers(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"answers": answers})
}
