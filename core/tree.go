package core

import (
	"strings"

	"github.com/appforge-dev/appforge/schema"
)

// buildTree folds flat, slash-delimited record paths into a nested folder and
// file structure. Folder order follows the first appearance of any descendant
// path; file order within a folder follows record order. The input is assumed
// well-formed and repo-relative; no path normalization happens here.
//
// The result depends only on the records, so callers may memoize it keyed on
// the ledger version.
func buildTree(records []schema.FileRecord) []schema.TreeNode {
	var roots []schema.TreeNode
	for _, record := range records {
		segments := strings.Split(record.Path, "/")
		roots = insert(roots, segments, "", record)
	}
	return roots
}

func insert(siblings []schema.TreeNode, segments []string, prefix string, record schema.FileRecord) []schema.TreeNode {
	name := segments[0]
	path := name
	if prefix != "" {
		path = prefix + "/" + name
	}
	if len(segments) == 1 {
		return append(siblings, schema.TreeNode{
			Name:     name,
			Path:     path,
			Kind:     schema.NodeFile,
			Content:  record.Content,
			Language: record.Language,
		})
	}
	for i := range siblings {
		if siblings[i].Kind == schema.NodeFolder && siblings[i].Name == name {
			siblings[i].Children = insert(siblings[i].Children, segments[1:], path, record)
			return siblings
		}
	}
	folder := schema.TreeNode{
		Name:     name,
		Path:     path,
		Kind:     schema.NodeFolder,
		Children: insert(nil, segments[1:], path, record),
	}
	return append(siblings, folder)
}
