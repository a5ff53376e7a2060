package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"lark/internal/api/dto"
	"lark/internal/config"
	"lark/internal/database"
	"lark/internal/domain"
	"lark/internal/geoip"
)

func getSecurityOverview(w http.ResponseWriter, r *http.Request) {
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)

	overview := dto.SecurityOverview{}

	if count, err := database.ActiveBanCount(); err == nil {
		overview.ActiveBans = count
	} else {
		log.Warn("Failed to count active bans", "error", err)
	}

	if count, err := database.BansCreatedSince(startOfDay); err == nil {
		overview.BansToday = count
	} else {
		log.Warn("Failed to count today's bans", "error", err)
	}

	if total, err := database.RequestTotalsSince(startOfDay); err == nil {
		overview.RequestsToday = total
	} else {
		log.Warn("Failed to sum today's requests", "error", err)
	}

	if count, err := database.TrackedClientCount(); err == nil {
		overview.TrackedClients = count
	} else {
		log.Warn("Failed to count tracked clients", "error", err)
	}

	writeJSON(w, http.StatusOK, overview)
}

func getBans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := database.BanFilter{
		Search:     query.Get("search"),
		ActiveOnly: query.Get("active") == "true",
	}
	if raw := query.Get("permanent"); raw != "" {
		permanent := raw == "true"
		filter.Permanent = &permanent
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.PageSize, _ = strconv.Atoi(query.Get("page_size"))

	bans, total, err := database.ListBans(filter)
	if err != nil {
		writeError(w, "Failed to load bans", http.StatusInternalServerError)
		return
	}

	infos := make([]dto.BanInfo, 0, len(bans))
	for _, ban := range bans {
		infos = append(infos, dto.BanInfo{
			ID:              ban.ID,
			IP:              ban.IP,
			Reason:          ban.Reason,
			ExpiresAt:       ban.ExpiresAt,
			IsPermanent:     ban.IsPermanent,
			OccurrenceCount: ban.OccurrenceCount,
			CountryCode:     geoip.CountryCode(ban.IP),
			CreatedAt:       ban.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bans":  infos,
		"total": total,
	})
}

func createBan(w http.ResponseWriter, r *http.Request) {
	var request dto.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ip := strings.TrimSpace(request.IP)
	if ip == "" {
		writeError(w, "IP address is required", http.StatusBadRequest)
		return
	}

	reason := strings.TrimSpace(request.Reason)
	if reason == "" {
		reason = "Manually banned by administrator"
	}

	duration := config.GetConfig().BanDuration()
	if request.DurationSeconds > 0 {
		duration = time.Duration(request.DurationSeconds) * time.Second
	}

	if err := database.BanIP(ip, reason, duration, request.Permanent); err != nil {
		writeError(w, "Failed to create ban", http.StatusInternalServerError)
		return
	}

	if err := database.LogSecurityEvent(ip, domain.EventIPBanned, reason, r.UserAgent()); err != nil {
		log.Warn("Failed to log manual ban", "ip", ip, "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "banned"})
}

func deleteBan(w http.ResponseWriter, r *http.Request) {
	ip := strings.TrimSpace(r.PathValue("ip"))
	if ip == "" {
		writeError(w, "IP address is required", http.StatusBadRequest)
		return
	}

	if err := database.UnbanIP(ip); err != nil {
		writeError(w, "Failed to remove ban", http.StatusInternalServerError)
		return
	}

	if err := database.LogSecurityEvent(ip, domain.EventIPUnbanned, "Unbanned by administrator", r.UserAgent()); err != nil {
		log.Warn("Failed to log unban", "ip", ip, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unbanned"})
}

func getSecurityEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := database.EventFilter{
		IP:        query.Get("ip"),
		EventType: query.Get("type"),
	}
	if raw := query.Get("since"); raw != "" {
		if since, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = since
		}
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.PageSize, _ = strconv.Atoi(query.Get("page_size"))

	events, total, err := database.ListSecurityEvents(filter)
	if err != nil {
		writeError(w, "Failed to load events", http.StatusInternalServerError)
		return
	}

	infos := make([]dto.SecurityEventInfo, 0, len(events))
	for _, event := range events {
		infos = append(infos, dto.SecurityEventInfo{
			ID:          event.ID,
			IP:          event.IP,
			EventType:   event.EventType,
			Description: event.Description,
			UserAgent:   event.UserAgent,
			CountryCode: geoip.CountryCode(event.IP),
			CreatedAt:   event.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": infos,
		"total":  total,
	})
}

func getGlobalSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.GetConfig())
}

func saveSettings(w http.ResponseWriter, r *http.Request) {
	var newConfig config.Config
	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		writeError(w, "Invalid settings payload", http.StatusBadRequest)
		return
	}

	config.SetConfig(newConfig)
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
