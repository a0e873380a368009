package forwarder

import (
	"net/url"
	"strings"
)

// targetURL derives the URL to request against the local origin from the
// decoded tunnel request's URL field plus its queryParams.
//
// req.URL may be:
//   - an absolute URL ("http://..." / "https://..."): only its path and
//     query are kept, the scheme/host are replaced with the local origin's;
//   - an absolute path ("/widgets"): used as-is;
//   - anything else: a leading "/" is prepended.
func targetURL(baseURL string, reqURL string, queryParams map[string]string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errInvalidURL
	}

	var path, rawQuery string
	if strings.HasPrefix(reqURL, "http://") || strings.HasPrefix(reqURL, "https://") {
		parsed, err := url.Parse(reqURL)
		if err != nil {
			return "", errInvalidURL
		}
		path = parsed.EscapedPath()
		rawQuery = parsed.RawQuery
	} else if strings.HasPrefix(reqURL, "/") {
		parsed, err := url.Parse(reqURL)
		if err != nil {
			return "", errInvalidURL
		}
		path = parsed.EscapedPath()
		rawQuery = parsed.RawQuery
	} else {
		parsed, err := url.Parse("/" + reqURL)
		if err != nil {
			return "", errInvalidURL
		}
		path = parsed.EscapedPath()
		rawQuery = parsed.RawQuery
	}

	target := *base.JoinPath(path)

	q := target.Query()
	if rawQuery != "" {
		extra, err := url.ParseQuery(rawQuery)
		if err == nil {
			for k, vs := range extra {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
		}
	}
	for k, v := range queryParams {
		q.Set(k, v)
	}
	target.RawQuery = q.Encode()

	return target.String(), nil
}
