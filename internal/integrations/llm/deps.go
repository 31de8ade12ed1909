package llm

import "complaintqa/internal/httpx"

var externalHTTPClient = httpx.ExternalHTTPClient()
