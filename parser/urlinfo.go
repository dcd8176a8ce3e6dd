package parser

import (
	"net/url"
	"strings"

	"talabat-menusync/models"
)

// ParseURLInfo extracts the structural parts of a restaurant URL:
// /<country>/restaurant/<branch_id>/<branch_slug> plus an optional
// ?aid=<area id> query parameter. The parse is total: URLs that do not
// match the expected shape simply leave the corresponding fields empty.
func ParseURLInfo(raw string) models.URLInfo {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return models.URLInfo{}
	}

	info := models.URLInfo{
		Host: u.Host,
		Path: u.Path,
	}
	if aid := u.Query().Get("aid"); aid != "" {
		info.AreaID = aid
	}

	path := strings.Trim(u.Path, "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	if len(parts) >= 1 {
		info.CountrySlug = parts[0]
	}
	if len(parts) >= 4 && parts[1] == "restaurant" {
		info.BranchID = parts[2]
		info.BranchSlug = parts[3]
	}
	return info
}
