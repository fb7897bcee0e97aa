// Package cache holds the temporary per-node structures of an import: relationship chain
// heads and degrees (NodeRelationshipLink) and node labels (NodeLabelsCache). Both are
// chunked arrays indexed by node id, grown lazily and safe for concurrent writers within
// one phase. Their memory footprint is reported through MemoryStatsVisitor.
package cache
