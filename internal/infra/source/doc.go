// Package source acquires SourceText from URLs.
//
// Document pages are reduced to their readable text with go-readability and
// tagged as documents. YouTube watch pages yield only their title, channel and
// description, tagged as metadata so the pipeline frames the summary as
// incomplete material. Every download goes through URL validation (private
// address blocking), a size limit, a circuit breaker and a short retry.
package source
