// Package s3 implements session.Adapter on Amazon S3 or any S3-compatible
// object store using aws-sdk-go-v2.
//
// A session lives in the object "<namespace>/<key>" of the configured bucket.
// The last access time is recorded as object metadata for operators, but S3
// offers no way to query by it, so ExpiredKeys reports
// session.ErrCapabilityUnsupported. Pair the bucket with a lifecycle rule to
// age out abandoned sessions.
//
// Open verifies the bucket with HeadBucket. Tests and callers holding their own
// client use NewAdapterWithClient with anything satisfying Client.
package s3
