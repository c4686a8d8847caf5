package serviceInfo

import (
	"net/http"
	"testing"

	serviceInfo "gohan/storage/models/constants/service-info"
	"gohan/storage/tests/common"

	"github.com/stretchr/testify/assert"
)

func TestGetServiceInfo(t *testing.T) {
	cfg := common.InitConfig()
	ts := common.NewTestServices(cfg)

	t.Run("should return 200 status ok and the service info", func(t *testing.T) {
		//set up
		gc, rec := ts.SetUpEcho(http.MethodGet, "/service-info", "")

		// perform
		GetServiceInfo(gc)

		// verify response status
		assert.Equal(t, http.StatusOK, rec.Code)

		// verify body
		json := common.GetJsonBody(rec)

		// - detailed
		assert.Equal(t, json["bento"].(map[string]interface{})["dataService"].(bool), true)

		assert.Equal(t, json["id"].(string), string(serviceInfo.SERVICE_ID))
		assert.Equal(t, json["name"].(string), string(serviceInfo.SERVICE_NAME))
		assert.Equal(t, json["description"].(string), string(serviceInfo.SERVICE_DESCRIPTION))
		assert.Equal(t, json["version"].(string), cfg.SemVer)
	})
}
