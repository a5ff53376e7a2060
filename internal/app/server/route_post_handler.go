package server

import (
	"errors"
	"net/http"
	"strconv"

	"lark/internal/api/dto"
	"lark/internal/auth"
	"lark/internal/database"
	"lark/internal/domain"
)

func parsePostID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func toPostInfo(post domain.Post, includeBody bool) dto.PostInfo {
	info := dto.PostInfo{
		ID:        post.ID,
		Title:     post.Title,
		Views:     post.Views,
		Likes:     post.Likes,
		CreatedAt: post.CreatedAt,
	}
	if includeBody {
		info.Body = post.Body
	}
	return info
}

func getPosts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	posts, total, err := database.GetPublishedPosts(page, 10)
	if err != nil {
		writeError(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	infos := make([]dto.PostInfo, 0, len(posts))
	for _, post := range posts {
		infos = append(infos, toPostInfo(post, false))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": infos,
		"total": total,
	})
}

func getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		writeError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	post, err := database.GetPostFromId(id)
	if err != nil {
		if errors.Is(err, database.ErrPostNotFound) {
			writeError(w, "Post not found", http.StatusNotFound)
			return
		}
		writeError(w, "Failed to load post", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toPostInfo(post, true))
}

func trackPostView(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		writeError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	if err := database.IncrementPostViews(id); err != nil {
		writeError(w, "Failed to track view", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func likePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		writeError(w, "Invalid post id", http.StatusBadRequest)
		return
	}

	userID, err := auth.GetUserIDFromRequest(r)
	if err != nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	liked, err := database.LikePost(id, userID)
	if err != nil {
		writeError(w, "Failed to like post", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}
