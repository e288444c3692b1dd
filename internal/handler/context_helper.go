package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func pageParams(c *gin.Context) (int, int) {
	page, size := 1, 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("page_size", c.DefaultQuery("limit", "20"))); err == nil {
		size = v
	}
	return page, size
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && v
}

func wantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.Query("mode"), "json") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
