package catalog

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"safaristay/internal/domain"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestAdmin_PropertyLifecycle(t *testing.T) {
	r := newRouter(t)

	w, env := send(t, r, http.MethodPost, "/api/v1/admin/properties", map[string]any{
		"id": "amboseli-camp", "name": " Amboseli Camp ", "location": "Amboseli",
		"type": "camp", "basePricePerNight": 210.456, "currency": "kes", "maxGuests": 8,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Property
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Amboseli Camp", created.Name)
	assert.Equal(t, "KES", created.Currency)
	assert.InDelta(t, 210.46, created.BasePricePerNight, 0.001)

	w, env = send(t, r, http.MethodPut, "/api/v1/admin/properties/amboseli-camp", map[string]any{
		"name": "Amboseli Tented Camp", "location": "Amboseli", "basePricePerNight": 230,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Property
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "amboseli-camp", updated.ID)
	assert.Equal(t, "USD", updated.Currency)

	_, env = get(t, r, "/api/v1/properties/amboseli-camp")
	var detail PropertyDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Amboseli Tented Camp", detail.Name)

	w, _ = send(t, r, http.MethodDelete, "/api/v1/admin/properties/amboseli-camp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = get(t, r, "/api/v1/properties/amboseli-camp")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = send(t, r, http.MethodDelete, "/api/v1/admin/properties/amboseli-camp", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestAdmin_CreatePropertyGeneratesID(t *testing.T) {
	r := newRouter(t)

	w, env := send(t, r, http.MethodPost, "/api/v1/admin/properties", map[string]any{"name": "Naivasha House"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Property
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Len(t, created.ID, 36)
}

func TestAdmin_RejectsInvalidAndDuplicateItems(t *testing.T) {
	r := newRouter(t)

	w, env := send(t, r, http.MethodPost, "/api/v1/admin/properties", map[string]any{
		"name": "   ", "basePricePerNight": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "notblank", env.Error.Details["name"])
	assert.Equal(t, "gte", env.Error.Details["basePricePerNight"])

	w, env = send(t, r, http.MethodPost, "/api/v1/admin/properties", map[string]any{
		"id": "mara-lodge", "name": "Another Lodge",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	w, env = send(t, r, http.MethodPost, "/api/v1/admin/packages", map[string]any{
		"name": "Ghost Trip", "accommodationProperty": "nowhere",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "exists", env.Error.Details["accommodationProperty"])

	w, _ = send(t, r, http.MethodPut, "/api/v1/admin/amenities/nowhere", map[string]any{"name": "Nothing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_DeletePropertyRemovesRoomsAndDetachesPackages(t *testing.T) {
	r := newRouter(t)

	w, _ := send(t, r, http.MethodDelete, "/api/v1/admin/properties/mara-lodge", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = send(t, r, http.MethodPut, "/api/v1/admin/rooms/tent-1", map[string]any{"name": "Luxury Tent"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env := get(t, r, "/api/v1/packages/mara-3d")
	var detail PackageDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Nil(t, detail.PropertyID)
	assert.Nil(t, detail.Accommodation)
}

func TestAdmin_RoomsBelongToExistingProperty(t *testing.T) {
	r := newRouter(t)

	w, _ := send(t, r, http.MethodPost, "/api/v1/admin/properties/nowhere/rooms", map[string]any{"name": "Tent"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := send(t, r, http.MethodPost, "/api/v1/admin/properties/diani-villa/rooms", map[string]any{
		"id": "villa-room", "name": "Ocean Room", "pricePerNight": 300, "maxGuests": 2,
		"availableForBooking": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var room domain.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, "diani-villa", room.PropertyID)
	assert.Equal(t, 1, room.Quantity)
	assert.False(t, room.Available)

	_, env = get(t, r, "/api/v1/properties/diani-villa")
	var detail PropertyDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Len(t, detail.Rooms, 1)
	assert.False(t, detail.Rooms[0].Available)

	w, _ = send(t, r, http.MethodDelete, "/api/v1/admin/rooms/villa-room", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = get(t, r, "/api/v1/properties/diani-villa")
	detail = PropertyDetail{}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Empty(t, detail.Rooms)
}

func TestAdmin_PackageAndAmenityUpdates(t *testing.T) {
	r := newRouter(t)

	w, env := send(t, r, http.MethodPut, "/api/v1/admin/packages/coast-5d", map[string]any{
		"name": "Coast 5 Days", "location": "Diani Beach", "category": "beach",
		"price": 1350, "maxGuests": 4, "accommodationProperty": "diani-villa",
	})
	require.Equal(t, http.StatusOK, w.Code)
	_, env = get(t, r, "/api/v1/packages/coast-5d")
	var detail PackageDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.NotNil(t, detail.Accommodation)
	assert.Equal(t, "diani-villa", detail.Accommodation.ID)
	assert.InDelta(t, 1350, detail.Price, 0.001)

	w, _ = send(t, r, http.MethodPost, "/api/v1/admin/amenities", map[string]any{
		"id": "night-drive", "name": "Night Drive", "price": 120, "category": "activity", "active": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = send(t, r, http.MethodPut, "/api/v1/admin/amenities/spa", map[string]any{
		"name": "Spa Session", "price": 80, "category": "wellness", "active": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	_, env = get(t, r, "/api/v1/amenities")
	var amenities []domain.Amenity
	require.NoError(t, json.Unmarshal(env.Data, &amenities))
	require.Len(t, amenities, 1)
	assert.Equal(t, "balloon", amenities[0].ID)

	w, _ = send(t, r, http.MethodDelete, "/api/v1/admin/packages/mara-3d", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = get(t, r, "/api/v1/packages/mara-3d")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
