package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/gorilla/mux"
)

// Endpoint is one registered route as shown by the sitemap.
type Endpoint struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// Endpoints walks the router and merges the methods of routes sharing a path.
func Endpoints(router *mux.Router) ([]Endpoint, error) {
	byPath := map[string][]string{}
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			// Subrouter prefixes carry no methods of their own.
			return nil
		}
		for _, m := range methods {
			if m == http.MethodOptions {
				continue
			}
			byPath[path] = appendUnique(byPath[path], m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(byPath))
	for path, methods := range byPath {
		sort.Strings(methods)
		endpoints = append(endpoints, Endpoint{Path: path, Methods: methods})
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Path < endpoints[j].Path })
	return endpoints, nil
}

// Sitemap lists the registered endpoints as JSON
func (h *Handler) Sitemap(router *mux.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoints, err := Endpoints(router)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"endpoints": endpoints})
	}
}

// SitemapXML lists the registered endpoints as an XML document
func (h *Handler) SitemapXML(router *mux.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoints, err := Endpoints(router)
		if err != nil {
			h.internalError(w, r, err)
			return
		}

		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		root := doc.CreateElement("sitemap")
		for _, e := range endpoints {
			el := root.CreateElement("endpoint")
			el.CreateAttr("methods", strings.Join(e.Methods, ","))
			el.CreateElement("loc").SetText(e.Path)
		}
		doc.Indent(2)

		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		if _, err := doc.WriteTo(w); err != nil {
			h.log.WithError(err).Warn("Failed to write sitemap")
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
