package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConceptRef identifies a concept by its owner, source and foreign id, e.g.
// /orgs/CIEL/sources/CIEL/concepts/5839/.
type ConceptRef struct {
	OwnerType string
	Owner     string
	Source    string
	ID        int
}

// SourceRef identifies a source, e.g. /orgs/WHO/sources/ICD-10-WHO/.
type SourceRef struct {
	OwnerType string
	Owner     string
	Source    string
}

func (r ConceptRef) String() string {
	return fmt.Sprintf("/%s/%s/sources/%s/concepts/%d/", r.OwnerType, r.Owner, r.Source, r.ID)
}

func (r SourceRef) String() string {
	return fmt.Sprintf("/%s/%s/sources/%s/", r.OwnerType, r.Owner, r.Source)
}

func ParseConceptRef(raw string) (ConceptRef, error) {
	segs, err := pathSegments(raw)
	if err != nil {
		return ConceptRef{}, err
	}
	src, err := sourceFromSegments(raw, segs)
	if err != nil {
		return ConceptRef{}, err
	}
	idx := indexOf(segs, "concepts")
	if idx < 0 || idx+1 >= len(segs) {
		return ConceptRef{}, fmt.Errorf("concept url %q: missing concept id", raw)
	}
	id, err := strconv.Atoi(segs[idx+1])
	if err != nil || id <= 0 {
		return ConceptRef{}, fmt.Errorf("concept url %q: invalid concept id %q", raw, segs[idx+1])
	}
	return ConceptRef{OwnerType: src.OwnerType, Owner: src.Owner, Source: src.Source, ID: id}, nil
}

func ParseSourceRef(raw string) (SourceRef, error) {
	segs, err := pathSegments(raw)
	if err != nil {
		return SourceRef{}, err
	}
	return sourceFromSegments(raw, segs)
}

func sourceFromSegments(raw string, segs []string) (SourceRef, error) {
	idx := indexOf(segs, "sources")
	if idx < 0 || idx+1 >= len(segs) {
		return SourceRef{}, fmt.Errorf("url %q: missing source id", raw)
	}
	ref := SourceRef{Source: segs[idx+1]}
	if idx >= 2 {
		ref.OwnerType = segs[idx-2]
		ref.Owner = segs[idx-1]
	}
	return ref, nil
}

func pathSegments(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs, nil
}

func indexOf(segs []string, want string) int {
	for i, s := range segs {
		if s == want {
			return i
		}
	}
	return -1
}
