// Package opensearch implements session.Adapter on an OpenSearch cluster
// using opensearch-go/v2.
//
// Each namespace is an index named after the lower-cased namespace, created
// on first write with "data" mapped as binary and "last_access" as an
// epoch_millis date. Expiry scans are range searches capped by ScanLimit, so a
// very large backlog drains over several cleanup runs.
//
// The adapter talks through opensearchapi.Transport, which *opensearch.Client
// satisfies; NewAdapterWithTransport accepts any implementation.
package opensearch
