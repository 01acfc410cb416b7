package restyutil

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

// maxDumpBody bounds how much of a response body ends up in a dump, about
// pages are large and only the embedded campaign json is interesting.
const maxDumpBody = 256 * 1024

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s: %s", k, v)
		}
	}
	return b.String()
}

func truncateBody(body string) string {
	if len(body) <= maxDumpBody {
		return body
	}
	return fmt.Sprintf("%s\n\n<TRUNCATED %d BYTES>", body[:maxDumpBody], len(body)-maxDumpBody)
}

func formatHttpMessage(res *resty.Response) string {
	var b strings.Builder

	finalUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	fmt.Fprintf(&b, "> %s %s\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		for _, line := range strings.Split(formatHeaders(res.Request.RawRequest.Header), "\n") {
			if line != "" {
				fmt.Fprintf(&b, "> %s\n", line)
			}
		}
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "< %d %s (%s)\n", res.StatusCode(), finalUrl, res.Time())
	for _, line := range strings.Split(formatHeaders(res.Header()), "\n") {
		if line != "" {
			fmt.Fprintf(&b, "< %s\n", line)
		}
	}
	b.WriteByte('\n')
	b.WriteString(truncateBody(res.String()))

	return b.String()
}
