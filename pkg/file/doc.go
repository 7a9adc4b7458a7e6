// Package file archives downloaded reports on the local filesystem or in S3.
//
// Both backends implement Storage, which writes a byte stream under a slash
// separated key, lists a prefix, checks existence, deletes and builds public
// URLs. Keys are confined to the storage root: anything that would escape it
// fails with ErrInvalidPath.
//
// # Usage
//
//	store, err := file.NewLocalStorage("reports", "")
//	if err != nil {
//		return err
//	}
//	key := file.ArchiveKey("overdue-report.pdf", time.Now())
//	f, err := store.Save(ctx, key, bytes.NewReader(data), "application/pdf")
//
// S3 and S3-compatible services (MinIO and similar) use the same interface:
//
//	store, err := file.NewS3Storage(ctx, file.S3Config{
//		Bucket:         "library-reports",
//		Region:         "eu-central-1",
//		Endpoint:       "http://localhost:9000",
//		ForcePathStyle: true,
//	})
//
// S3 failures are mapped onto the package errors: NoSuchKey becomes
// ErrFileNotFound, NoSuchBucket ErrBucketNotFound, AccessDenied
// ErrAccessDenied, and context deadlines ErrOperationTimeout.
package file
