package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/lapakgo/lapakgo/models"
)

type ForumSuite struct {
	apiSuite
}

func TestForumSuite(t *testing.T) {
	suite.Run(t, new(ForumSuite))
}

func (s *ForumSuite) createPost(acc account, title string) uint {
	w := s.request(http.MethodPost, "/api/v1/forum/posts", gin.H{
		"title":   title,
		"content": "isi diskusi",
	}, withBearer(acc.Access))
	s.Require().Equal(http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return uint(s.data(w)["id"].(float64))
}

func (s *ForumSuite) createReply(acc account, postID uint, content string, parentID *uint) uint {
	body := gin.H{"content": content}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	w := s.request(http.MethodPost, fmt.Sprintf("/api/v1/forum/posts/%d/replies", postID),
		body, withBearer(acc.Access))
	s.Require().Equal(http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return uint(s.data(w)["id"].(float64))
}

func (s *ForumSuite) getPost(postID uint) map[string]interface{} {
	w := s.request(http.MethodGet, fmt.Sprintf("/api/v1/forum/posts/%d", postID), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	return s.data(w)
}

func replyIDs(nodes []interface{}) []uint {
	out := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, uint(n.(map[string]interface{})["id"].(float64)))
	}
	return out
}

func children(node interface{}) []interface{} {
	raw, _ := node.(map[string]interface{})["replies"].([]interface{})
	return raw
}

func (s *ForumSuite) TestReplyTreeShape() {
	acc := s.register("citra", "citra@example.com", "rahasia123")
	postID := s.createPost(acc, "pohon balasan")

	r1 := s.createReply(acc, postID, "pertama", nil)
	r2 := s.createReply(acc, postID, "balas pertama", &r1)
	r3 := s.createReply(acc, postID, "kedua", nil)
	r4 := s.createReply(acc, postID, "balas balasan", &r2)

	post := s.getPost(postID)
	s.Equal(float64(4), post["reply_count"])

	roots, _ := post["replies"].([]interface{})
	s.Require().Equal([]uint{r1, r3}, replyIDs(roots))

	r1Children := children(roots[0])
	s.Require().Equal([]uint{r2}, replyIDs(r1Children))
	s.Equal([]uint{r4}, replyIDs(children(r1Children[0])))
	s.Empty(children(roots[1]))
}

func (s *ForumSuite) TestToggleLikeTwiceRestoresCount() {
	acc := s.register("dewi", "dewi@example.com", "rahasia123")
	postID := s.createPost(acc, "suka dan batal suka")
	path := fmt.Sprintf("/api/v1/forum/posts/%d/like", postID)

	first := s.request(http.MethodPost, path, nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, first.Code)
	s.Equal(true, s.data(first)["liked"])
	s.Equal(float64(1), s.data(first)["like_count"])

	second := s.request(http.MethodPost, path, nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, second.Code)
	s.Equal(false, s.data(second)["liked"])
	s.Equal(float64(0), s.data(second)["like_count"])
}

func (s *ForumSuite) TestReplyWithMissingParentWritesNothing() {
	acc := s.register("fajar", "fajar@example.com", "rahasia123")
	postID := s.createPost(acc, "induk hilang")

	missing := uint(9999)
	w := s.request(http.MethodPost, fmt.Sprintf("/api/v1/forum/posts/%d/replies", postID),
		gin.H{"content": "yatim", "parent_id": missing}, withBearer(acc.Access))
	s.Equal(http.StatusNotFound, w.Code)

	var count int64
	s.Require().NoError(s.db.Model(&models.ForumReply{}).
		Where("forum_post_id = ?", postID).Count(&count).Error)
	s.Equal(int64(0), count)
}

func (s *ForumSuite) TestReplyParentMustBelongToSamePost() {
	acc := s.register("gita", "gita@example.com", "rahasia123")
	postA := s.createPost(acc, "diskusi a")
	postB := s.createPost(acc, "diskusi b")
	parent := s.createReply(acc, postA, "di diskusi a", nil)

	w := s.request(http.MethodPost, fmt.Sprintf("/api/v1/forum/posts/%d/replies", postB),
		gin.H{"content": "salah rumah", "parent_id": parent}, withBearer(acc.Access))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ForumSuite) TestDeleteReplyCascadesSubtree() {
	acc := s.register("hana", "hana@example.com", "rahasia123")
	postID := s.createPost(acc, "hapus subpohon")

	r1 := s.createReply(acc, postID, "akar", nil)
	r2 := s.createReply(acc, postID, "anak", &r1)
	_ = s.createReply(acc, postID, "cucu", &r2)
	r3 := s.createReply(acc, postID, "tetangga", nil)

	w := s.request(http.MethodDelete, fmt.Sprintf("/api/v1/forum/replies/%d", r1),
		nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, w.Code)

	post := s.getPost(postID)
	roots, _ := post["replies"].([]interface{})
	s.Equal([]uint{r3}, replyIDs(roots))

	var count int64
	s.Require().NoError(s.db.Model(&models.ForumReply{}).
		Where("forum_post_id = ?", postID).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *ForumSuite) TestDeleteReplyForbiddenForOthers() {
	author := s.register("indra", "indra@example.com", "rahasia123")
	other := s.register("karin", "karin@example.com", "rahasia123")

	postID := s.createPost(author, "milik indra")
	r1 := s.createReply(author, postID, "akar", nil)
	s.createReply(author, postID, "anak", &r1)

	w := s.request(http.MethodDelete, fmt.Sprintf("/api/v1/forum/replies/%d", r1),
		nil, withBearer(other.Access))
	s.Equal(http.StatusForbidden, w.Code)

	var count int64
	s.Require().NoError(s.db.Model(&models.ForumReply{}).
		Where("forum_post_id = ?", postID).Count(&count).Error)
	s.Equal(int64(2), count)
}

func (s *ForumSuite) TestAdminModeratesForeignReply() {
	author := s.register("lina", "lina@example.com", "rahasia123")
	admin := s.register("admin", "admin@example.com", "rahasia123")

	postID := s.createPost(author, "dimoderasi")
	r1 := s.createReply(author, postID, "melanggar", nil)

	w := s.request(http.MethodDelete, fmt.Sprintf("/api/v1/forum/replies/%d", r1),
		nil, withBearer(admin.Access))
	s.Equal(http.StatusOK, w.Code)
}

func (s *ForumSuite) TestDeletePostRemovesRepliesAndLikes() {
	acc := s.register("mira", "mira@example.com", "rahasia123")
	postID := s.createPost(acc, "dihapus total")
	s.createReply(acc, postID, "ikut hilang", nil)
	s.request(http.MethodPost, fmt.Sprintf("/api/v1/forum/posts/%d/like", postID),
		nil, withBearer(acc.Access))

	w := s.request(http.MethodDelete, fmt.Sprintf("/api/v1/forum/posts/%d", postID),
		nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, w.Code)

	var replies, likes int64
	s.Require().NoError(s.db.Model(&models.ForumReply{}).
		Where("forum_post_id = ?", postID).Count(&replies).Error)
	s.Require().NoError(s.db.Model(&models.ForumLike{}).
		Where("forum_post_id = ?", postID).Count(&likes).Error)
	s.Equal(int64(0), replies)
	s.Equal(int64(0), likes)
}

func (s *ForumSuite) TestUpdatePostOnlyByAuthor() {
	author := s.register("nanda", "nanda@example.com", "rahasia123")
	other := s.register("oscar", "oscar@example.com", "rahasia123")
	postID := s.createPost(author, "judul lama")

	denied := s.request(http.MethodPut, fmt.Sprintf("/api/v1/forum/posts/%d", postID),
		gin.H{"title": "dibajak"}, withBearer(other.Access))
	s.Equal(http.StatusForbidden, denied.Code)

	ok := s.request(http.MethodPut, fmt.Sprintf("/api/v1/forum/posts/%d", postID),
		gin.H{"title": "judul baru"}, withBearer(author.Access))
	s.Require().Equal(http.StatusOK, ok.Code)

	post := s.getPost(postID)
	s.Equal("judul baru", post["title"])
}

func (s *ForumSuite) TestFullDiscussionFlow() {
	s.register("alice", "a@x.com", "secret1")

	login := s.request(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice",
		"password": "secret1",
	})
	s.Require().Equal(http.StatusOK, login.Code)
	acc := account{Access: s.data(login)["access_token"].(string)}

	postID := s.createPost(acc, "Hello")
	s.createReply(acc, postID, "Hi", nil)

	post := s.getPost(postID)
	roots, _ := post["replies"].([]interface{})
	s.Require().Len(roots, 1)
	first := roots[0].(map[string]interface{})
	s.Equal("Hi", first["content"])
	s.Empty(children(roots[0]))

	path := fmt.Sprintf("/api/v1/forum/posts/%d/like", postID)
	liked := s.request(http.MethodPost, path, nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, liked.Code)
	s.Equal(true, s.data(liked)["liked"])
	s.Equal(float64(1), s.data(liked)["like_count"])

	unliked := s.request(http.MethodPost, path, nil, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, unliked.Code)
	s.Equal(false, s.data(unliked)["liked"])
	s.Equal(float64(0), s.data(unliked)["like_count"])
}

func (s *ForumSuite) TestUpdateReplyByAuthor() {
	acc := s.register("yani", "yani@example.com", "rahasia123")
	other := s.register("zulfa", "zulfa@example.com", "rahasia123")
	postID := s.createPost(acc, "sunting balasan")
	replyID := s.createReply(acc, postID, "sebelum", nil)

	denied := s.request(http.MethodPut, fmt.Sprintf("/api/v1/forum/replies/%d", replyID),
		gin.H{"content": "dibajak"}, withBearer(other.Access))
	s.Equal(http.StatusForbidden, denied.Code)

	ok := s.request(http.MethodPut, fmt.Sprintf("/api/v1/forum/replies/%d", replyID),
		gin.H{"content": "sesudah"}, withBearer(acc.Access))
	s.Require().Equal(http.StatusOK, ok.Code)
	s.Equal("sesudah", s.data(ok)["content"])
}

func (s *ForumSuite) TestListPostsCounts() {
	acc := s.register("putri", "putri@example.com", "rahasia123")
	postID := s.createPost(acc, "dengan hitungan")
	s.createReply(acc, postID, "satu", nil)
	s.request(http.MethodPost, fmt.Sprintf("/api/v1/forum/posts/%d/like", postID),
		nil, withBearer(acc.Access))

	w := s.request(http.MethodGet, "/api/v1/forum/posts", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	body := s.decode(w)
	posts, _ := body["data"].([]interface{})
	s.Require().Len(posts, 1)

	post := posts[0].(map[string]interface{})
	s.Equal(float64(1), post["reply_count"])
	s.Equal(float64(1), post["like_count"])

	pagination, _ := body["pagination"].(map[string]interface{})
	s.Require().NotNil(pagination)
	s.Equal(float64(1), pagination["total"])
}
