// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/sirupsen/logrus"

	"esxinventory/internal/constants"
)

// ErrUnknownGroupBy is returned for a grouping key other than
// vm_os_type_id or vm_annotation_group.
var ErrUnknownGroupBy = errors.New("unknown group_by key")

// annotationGroupRE extracts NAME from "...group=NAME" followed by a
// delimiter or end of text. The leading (.*) is greedy, so the last
// group= wins when several are present.
var annotationGroupRE = regexp.MustCompile(`^(.*)(group=)(\w+)(,|;|:|\s|$)`)

// Group is one inventory group.
type Group struct {
	Hosts []string
}

// Document is the typed list-mode inventory.
type Document struct {
	// Children holds group names in order of first appearance.
	Children []string
	Groups   map[string]*Group
	HostVars map[string]HostVars
}

func newDocument() *Document {
	return &Document{
		Children: []string{},
		Groups:   map[string]*Group{},
		HostVars: map[string]HostVars{},
	}
}

// HostDocument is the single-host result. It renders as {} when no VM matched.
type HostDocument struct {
	vars  HostVars
	found bool
}

// Found reports whether any VM matched the query.
func (h HostDocument) Found() bool { return h.found }

// Vars returns the projected attributes of the last matching VM.
func (h HostDocument) Vars() (HostVars, bool) { return h.vars, h.found }

// AnnotationGroup returns the group named in an annotation, or "ungrouped".
func AnnotationGroup(annotation string) string {
	m := annotationGroupRE.FindStringSubmatch(annotation)
	if m == nil {
		return constants.UngroupedGroup
	}
	return m[3]
}

// ResolveGroup computes the group a record belongs to under groupBy.
func ResolveGroup(r VMRecord, groupBy string) (string, error) {
	var group string
	switch groupBy {
	case constants.GroupByOSTypeID:
		group = r.GuestID
		if group == "" {
			group = r.GuestFamily
		}
	case constants.GroupByAnnotationGroup:
		group = AnnotationGroup(r.Annotation)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGroupBy, groupBy)
	}
	// The top-level keys are reserved by the document layout.
	switch group {
	case "", "all", "_meta":
		group = constants.UngroupedGroup
	}
	return group, nil
}

// Projector builds inventory documents from VM records.
type Projector struct {
	log logrus.FieldLogger
}

// NewProjector returns a Projector that reports skipped VMs to log.
func NewProjector(log logrus.FieldLogger) *Projector {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Projector{log: log}
}

// BuildListDocument groups every eligible record. Hosts are appended
// unconditionally, so records sharing an identifier appear more than once
// under their group while hostvars keeps one entry per identifier.
func (p *Projector) BuildListDocument(records []VMRecord, groupBy string, useIP bool) (*Document, error) {
	doc := newDocument()

	for _, r := range records {
		logger := p.log.WithField("vm", r.Name)
		if !r.Eligible() {
			logger.WithFields(logrus.Fields{
				"guestState":  r.GuestState,
				"toolsStatus": r.ToolsStatus,
			}).Debug("skipping VM")
			continue
		}

		group, err := ResolveGroup(r, groupBy)
		if err != nil {
			return nil, err
		}

		hostID := r.HostID(useIP)
		if hostID == "" {
			logger.Warn("VM has no guest identifier, listing it under an empty host name")
		}

		g, ok := doc.Groups[group]
		if !ok {
			g = &Group{Hosts: []string{}}
			doc.Groups[group] = g
			doc.Children = append(doc.Children, group)
		}
		g.Hosts = append(g.Hosts, hostID)

		// r itself always matches hostID, so the lookup never comes back empty.
		doc.HostVars[hostID], _ = p.BuildHostDocument(records, hostID).Vars()
		logger.WithFields(logrus.Fields{"host": hostID, "group": group}).Debug("grouped VM")
	}

	return doc, nil
}

// BuildHostDocument scans every record without eligibility filtering. When
// several records match, the last one wins.
func (p *Projector) BuildHostDocument(records []VMRecord, query string) HostDocument {
	var doc HostDocument
	for _, r := range records {
		if r.Matches(query) {
			doc = HostDocument{vars: ProjectHostVars(r), found: true}
		}
	}
	return doc
}

// Hosts returns the number of host entries across all groups.
func (d *Document) Hosts() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Hosts)
	}
	return n
}
