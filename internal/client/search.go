package client

import (
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/sanLimbu/todo-app/internal"
)

func searchQuery(args internal.SearchParams) (url.Values, error) {
	params := map[string]interface{}{
		"from": args.From,
	}

	if args.Title != nil {
		params["title"] = *args.Title
	}

	if args.Completed != nil {
		params["completed"] = *args.Completed
	}

	if args.Size > 0 {
		params["size"] = args.Size
	}

	query := url.Values{}

	for name, value := range params {
		frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid %s parameter", name)
		}

		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "url.ParseQuery")
		}

		for k, v := range parsed {
			query[k] = append(query[k], v...)
		}
	}

	return query, nil
}
