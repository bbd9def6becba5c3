package server

import (
	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/v1/search?q=
// @Summary Search
// @Description Accounts by username and projects by title or description
// @Tags search
// @Produce json
// @Param q query string true "Query, at least two characters"
// @Success 200 {object} service.SearchResults
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	results, err := s.searchService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}
