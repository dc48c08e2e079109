package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/middleware"
	"github.com/lapakgo/lapakgo/models"
	"github.com/lapakgo/lapakgo/utils"
)

// ForumController implements the discussion board: threads, a nested reply
// tree and per-user likes.
type ForumController struct {
	db *gorm.DB
}

func NewForumController(db *gorm.DB) *ForumController {
	return &ForumController{db: db}
}

// ListPosts returns a paginated listing, newest first, with like and reply
// counts filled in.
func (f *ForumController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx)

	var total int64
	if err := f.db.Model(&models.ForumPost{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil diskusi")
		return
	}

	var posts []models.ForumPost
	if err := f.db.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil diskusi")
		return
	}

	if err := f.fillCounts(posts); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil diskusi")
		return
	}

	utils.Paginated(ctx, "ok", posts, utils.NewPagination(page, limit, total))
}

// GetPost returns one thread with its full reply tree. All replies are
// fetched in a single query ordered by creation time and linked up in memory,
// so siblings at every depth come out oldest first.
func (f *ForumController) GetPost(ctx *gin.Context) {
	var post models.ForumPost
	if err := f.db.Preload("User").First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "diskusi tidak ditemukan")
		return
	}

	var replies []*models.ForumReply
	if err := f.db.Preload("User").
		Where("forum_post_id = ?", post.ID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil balasan")
		return
	}

	post.Replies = buildReplyTree(replies)
	post.ReplyCount = int64(len(replies))

	if err := f.db.Model(&models.ForumLike{}).
		Where("forum_post_id = ?", post.ID).
		Count(&post.LikeCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal mengambil diskusi")
		return
	}

	utils.Success(ctx, "ok", post)
}

// CreatePost starts a new thread.
func (f *ForumController) CreatePost(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,min=3,max=255"`
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data diskusi tidak valid")
		return
	}

	post := models.ForumPost{
		UserID:  auth.UserID,
		Title:   strings.TrimSpace(req.Title),
		Content: utils.Sanitize(req.Content),
	}
	if err := f.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat diskusi")
		return
	}

	f.db.Preload("User").First(&post, post.ID)
	utils.Created(ctx, "diskusi dibuat", post)
}

// UpdatePost edits a thread. Author or admin.
func (f *ForumController) UpdatePost(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var post models.ForumPost
	if err := f.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "diskusi tidak ditemukan")
		return
	}
	if post.UserID != auth.UserID && !auth.IsAdmin {
		utils.Error(ctx, http.StatusForbidden, "bukan diskusi anda")
		return
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data diskusi tidak valid")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 {
			utils.Error(ctx, http.StatusBadRequest, "judul terlalu pendek")
			return
		}
		updates["title"] = title
	}
	if req.Content != nil {
		updates["content"] = utils.Sanitize(*req.Content)
	}
	if len(updates) > 0 {
		if err := f.db.Model(&post).Updates(updates).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, "gagal memperbarui diskusi")
			return
		}
	}

	utils.Success(ctx, "diskusi diperbarui", post)
}

// DeletePost removes a thread with all of its replies and likes in one
// transaction. Author or admin.
func (f *ForumController) DeletePost(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var post models.ForumPost
	if err := f.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "diskusi tidak ditemukan")
		return
	}
	if post.UserID != auth.UserID && !auth.IsAdmin {
		utils.Error(ctx, http.StatusForbidden, "bukan diskusi anda")
		return
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("forum_post_id = ?", post.ID).
			Delete(&models.ForumReply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("forum_post_id = ?", post.ID).
			Delete(&models.ForumLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus diskusi")
		return
	}

	utils.Success(ctx, "diskusi dihapus", nil)
}

// ToggleLike flips the caller's like on a post inside one transaction and
// returns the resulting state plus the fresh count.
func (f *ForumController) ToggleLike(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var post models.ForumPost
	if err := f.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "diskusi tidak ditemukan")
		return
	}

	var liked bool
	var likeCount int64
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ForumLike
		err := tx.Where("forum_post_id = ? AND user_id = ?", post.ID, auth.UserID).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.ForumLike{ForumPostID: post.ID, UserID: auth.UserID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return tx.Model(&models.ForumLike{}).
			Where("forum_post_id = ?", post.ID).
			Count(&likeCount).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memproses suka")
		return
	}

	utils.Success(ctx, "ok", gin.H{"liked": liked, "like_count": likeCount})
}

// CreateReply adds a reply, optionally nested under a parent reply. The
// parent must belong to the same post; nothing is written otherwise.
func (f *ForumController) CreateReply(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var post models.ForumPost
	if err := f.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "diskusi tidak ditemukan")
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required,min=1"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data balasan tidak valid")
		return
	}

	if req.ParentID != nil {
		var parent models.ForumReply
		if err := f.db.First(&parent, *req.ParentID).Error; err != nil ||
			parent.ForumPostID != post.ID {
			utils.Error(ctx, http.StatusNotFound, "balasan induk tidak ditemukan")
			return
		}
	}

	reply := models.ForumReply{
		ForumPostID: post.ID,
		UserID:      auth.UserID,
		ParentID:    req.ParentID,
		Content:     utils.Sanitize(req.Content),
	}
	if err := f.db.Create(&reply).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal membuat balasan")
		return
	}

	f.db.Preload("User").First(&reply, reply.ID)
	utils.Created(ctx, "balasan dibuat", reply)
}

// UpdateReply edits a reply's content. Author or admin.
func (f *ForumController) UpdateReply(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var reply models.ForumReply
	if err := f.db.First(&reply, ctx.Param("replyId")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "balasan tidak ditemukan")
		return
	}
	if reply.UserID != auth.UserID && !auth.IsAdmin {
		utils.Error(ctx, http.StatusForbidden, "bukan balasan anda")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "data balasan tidak valid")
		return
	}

	if err := f.db.Model(&reply).
		Update("content", utils.Sanitize(req.Content)).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal memperbarui balasan")
		return
	}

	utils.Success(ctx, "balasan diperbarui", reply)
}

// DeleteReply removes a reply together with its whole subtree in one
// transaction. Author or admin.
func (f *ForumController) DeleteReply(ctx *gin.Context) {
	auth, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.GenericAuthMessage)
		return
	}

	var reply models.ForumReply
	if err := f.db.First(&reply, ctx.Param("replyId")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, "balasan tidak ditemukan")
		return
	}
	if reply.UserID != auth.UserID && !auth.IsAdmin {
		utils.Error(ctx, http.StatusForbidden, "bukan balasan anda")
		return
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		var all []*models.ForumReply
		if err := tx.Where("forum_post_id = ?", reply.ForumPostID).
			Find(&all).Error; err != nil {
			return err
		}
		ids := subtreeIDs(all, reply.ID)
		return tx.Delete(&models.ForumReply{}, ids).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "gagal menghapus balasan")
		return
	}

	utils.Success(ctx, "balasan dihapus", nil)
}

// fillCounts batches the like and reply counts for a page of posts into two
// GROUP BY queries.
func (f *ForumController) fillCounts(posts []models.ForumPost) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	type countRow struct {
		ForumPostID uint
		Total       int64
	}

	var likeRows []countRow
	if err := f.db.Model(&models.ForumLike{}).
		Select("forum_post_id, COUNT(*) AS total").
		Where("forum_post_id IN ?", ids).
		Group("forum_post_id").
		Scan(&likeRows).Error; err != nil {
		return err
	}

	var replyRows []countRow
	if err := f.db.Model(&models.ForumReply{}).
		Select("forum_post_id, COUNT(*) AS total").
		Where("forum_post_id IN ?", ids).
		Group("forum_post_id").
		Scan(&replyRows).Error; err != nil {
		return err
	}

	likes := make(map[uint]int64, len(likeRows))
	for _, r := range likeRows {
		likes[r.ForumPostID] = r.Total
	}
	repliesByPost := make(map[uint]int64, len(replyRows))
	for _, r := range replyRows {
		repliesByPost[r.ForumPostID] = r.Total
	}

	for i := range posts {
		posts[i].LikeCount = likes[posts[i].ID]
		posts[i].ReplyCount = repliesByPost[posts[i].ID]
	}
	return nil
}

// buildReplyTree links a flat, chronologically ordered reply slice into the
// nested structure. Replies whose parent is missing are surfaced at the top
// level rather than dropped.
func buildReplyTree(replies []*models.ForumReply) []*models.ForumReply {
	byID := make(map[uint]*models.ForumReply, len(replies))
	for _, r := range replies {
		r.Replies = []*models.ForumReply{}
		byID[r.ID] = r
	}

	var roots []*models.ForumReply
	for _, r := range replies {
		if r.ParentID != nil {
			if parent, ok := byID[*r.ParentID]; ok {
				parent.Replies = append(parent.Replies, r)
				continue
			}
		}
		roots = append(roots, r)
	}
	return roots
}

// subtreeIDs collects a reply id and all of its descendants from a flat
// slice of the post's replies.
func subtreeIDs(all []*models.ForumReply, rootID uint) []uint {
	children := make(map[uint][]uint, len(all))
	for _, r := range all {
		if r.ParentID != nil {
			children[*r.ParentID] = append(children[*r.ParentID], r.ID)
		}
	}

	ids := []uint{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}
