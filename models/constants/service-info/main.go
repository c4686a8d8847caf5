package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "Bento Gohan Storage Service"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the Gohan variant storage metadata API!"
	SERVICE_DESCRIPTION ServiceInfo = "Search-partition coverage, query routing, annotation provenance and incremental variant loading for a Bento platform node."

	SERVICE_ARTIFACT    ServiceInfo = "gohan-storage"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("ca.c3g.bento:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
)
