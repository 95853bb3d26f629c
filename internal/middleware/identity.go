package middleware

// identity.go defines helper functions shared across middleware files. Currently
// it provides a userID extraction function that reads the "user_id" value the
// JWT middleware stored in the Echo context. When no user is authenticated,
// "anon" is returned so rate limit keys still partition sensibly.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID renders the authenticated user's identifier as a string. The JWT
// middleware stores the raw "sub" claim, whose type depends on how the token
// was minted, so every plausible shape is handled here.
func userID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case uint64:
        return strconv.FormatUint(v, 10)
    case int64:
        return strconv.FormatInt(v, 10)
    case int:
        return strconv.Itoa(v)
    case float64:
        return strconv.FormatFloat(v, 'f', -1, 64)
    }
    return "anon"
}
