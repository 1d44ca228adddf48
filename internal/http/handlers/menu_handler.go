// Menu HTTP handler.
//
// The menu is served as a set of images dropped into the media directory by
// the restaurant staff; no database is involved. GET /menu lists the pages in
// name order with URLs under the static /media route.
package handlers

import (
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/whitefox-bar/go-booking-backend/internal/http/middleware"
)

// MenuPage is one image of the menu.
type MenuPage struct {
	// Name is the file name of the page.
	Name string `json:"name" example:"menu-1.jpg"`
	// URL is the path the image is served at.
	URL string `json:"url" example:"/media/menu-1.jpg"`
}

// MenuResponse lists the menu pages in display order.
type MenuResponse struct {
	Pages []MenuPage `json:"pages"`
}

// imageExts are the file extensions considered menu pages.
var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {},
}

// Menu godoc
// @ID          menu
// @Summary     List the menu pages
// @Description Returns the menu images available under /media, sorted by file name.
// @Tags        Menu
// @Produce     json
//
// @Success     200  {object}  handlers.MenuResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /menu [get]
func (h *Handlers) Menu(c *gin.Context) {
	entries, err := os.ReadDir(h.mediaDir)
	if err != nil {
		if os.IsNotExist(err) {
			// An unprovisioned media directory just means an empty menu.
			ok(c, http.StatusOK, MenuResponse{Pages: []MenuPage{}})
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Str("dir", h.mediaDir).Msg("menu dir read failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	pages := make([]MenuPage, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		if _, isImage := imageExts[ext]; !isImage {
			continue
		}
		pages = append(pages, MenuPage{
			Name: e.Name(),
			URL:  "/media/" + e.Name(),
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })

	ok(c, http.StatusOK, MenuResponse{Pages: pages})
}
