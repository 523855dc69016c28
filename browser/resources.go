package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceAliases maps CDP resource types to the plural config names used in
// Config.ResourceBlocking.
var resourceAliases = map[string]string{
	"image":      "images",
	"font":       "fonts",
	"stylesheet": "stylesheets",
}

// applyResourceBlocking intercepts page requests and fails those whose
// resource type is listed in types. The stats table is plain HTML; skipping
// images and fonts shortens the render considerably.
func applyResourceBlocking(page *rod.Page, types []string) error {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[blockName(string(h.Request.Type()))] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return nil
}

// blockName normalises a CDP resource type to its config name.
func blockName(resType string) string {
	t := strings.ToLower(resType)
	if alias, ok := resourceAliases[t]; ok {
		return alias
	}
	return t
}
