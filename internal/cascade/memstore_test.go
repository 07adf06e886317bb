package cascade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// memStore is an in-memory catalog with transactional semantics and foreign
// key checks, used to exercise plans without PostgreSQL.

type catRow struct{ parent int }
type productRow struct{ category, brand int }
type variantRow struct {
	product int
	image   string
}
type linkRow struct{ variant, value int }
type mediaRow struct{ product, variant int }
type mediaURLRow struct {
	media     int
	url       string
	mediaType string
}
type secondaryRow struct{ product, variant int }

type memState struct {
	Categories map[int]catRow
	Brands     map[int]bool
	Products   map[int]productRow
	Variants   map[int]variantRow
	Values     map[int]bool
	Links      map[linkRow]bool
	Media      map[int]mediaRow
	MediaURLs  map[int]mediaURLRow
	Secondary  map[models.SecondaryTable]map[int]secondaryRow
}

func newMemState() *memState {
	return &memState{
		Categories: map[int]catRow{},
		Brands:     map[int]bool{},
		Products:   map[int]productRow{},
		Variants:   map[int]variantRow{},
		Values:     map[int]bool{},
		Links:      map[linkRow]bool{},
		Media:      map[int]mediaRow{},
		MediaURLs:  map[int]mediaURLRow{},
		Secondary:  map[models.SecondaryTable]map[int]secondaryRow{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.Categories {
		c.Categories[k] = v
	}
	for k, v := range s.Brands {
		c.Brands[k] = v
	}
	for k, v := range s.Products {
		c.Products[k] = v
	}
	for k, v := range s.Variants {
		c.Variants[k] = v
	}
	for k, v := range s.Values {
		c.Values[k] = v
	}
	for k, v := range s.Links {
		c.Links[k] = v
	}
	for k, v := range s.Media {
		c.Media[k] = v
	}
	for k, v := range s.MediaURLs {
		c.MediaURLs[k] = v
	}
	for table, rows := range s.Secondary {
		cp := make(map[int]secondaryRow, len(rows))
		for k, v := range rows {
			cp[k] = v
		}
		c.Secondary[table] = cp
	}
	return c
}

type memStore struct {
	mu     sync.Mutex
	state  *memState
	failOn map[string]error
	nextID int
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), failOn: map[string]error{}, nextID: 10000}
}

// fail makes every call of op (e.g. "DeleteProduct" or "DeleteProduct:7")
// return err.
func (m *memStore) fail(op string, err error) { m.failOn[op] = err }

func (m *memStore) check(op string, arg interface{}) error {
	if err, ok := m.failOn[fmt.Sprintf("%s:%v", op, arg)]; ok {
		return err
	}
	if err, ok := m.failOn[op]; ok {
		return err
	}
	return nil
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// --- seeding helpers ---

func (m *memStore) addCategory(id, parent int) { m.state.Categories[id] = catRow{parent: parent} }
func (m *memStore) addBrand(id int)            { m.state.Brands[id] = true }
func (m *memStore) addProduct(id, category, brand int) {
	m.state.Products[id] = productRow{category: category, brand: brand}
}
func (m *memStore) addVariant(id, product int, image string) {
	m.state.Variants[id] = variantRow{product: product, image: image}
}
func (m *memStore) addValue(id int)           { m.state.Values[id] = true }
func (m *memStore) link(variant, value int)   { m.state.Links[linkRow{variant, value}] = true }
func (m *memStore) addMedia(id, product, variant int) {
	m.state.Media[id] = mediaRow{product: product, variant: variant}
}
func (m *memStore) addMediaURL(id, media int, url, mediaType string) {
	m.state.MediaURLs[id] = mediaURLRow{media: media, url: url, mediaType: mediaType}
}
func (m *memStore) addSecondary(table models.SecondaryTable, product, variant int) {
	if m.state.Secondary[table] == nil {
		m.state.Secondary[table] = map[int]secondaryRow{}
	}
	m.nextID++
	m.state.Secondary[table][m.nextID] = secondaryRow{product: product, variant: variant}
}

func (m *memStore) has(table string, id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch table {
	case "categories":
		_, ok := m.state.Categories[id]
		return ok
	case "brands":
		return m.state.Brands[id]
	case "products":
		_, ok := m.state.Products[id]
		return ok
	case "variants":
		_, ok := m.state.Variants[id]
		return ok
	case "values":
		return m.state.Values[id]
	case "media":
		_, ok := m.state.Media[id]
		return ok
	case "media_urls":
		_, ok := m.state.MediaURLs[id]
		return ok
	}
	panic("unknown table " + table)
}

func (m *memStore) secondaryCount(table models.SecondaryTable) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Secondary[table])
}

// --- Reader ---

func (m *memStore) Exists(_ context.Context, ref models.Ref) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("Exists", ref.ID); err != nil {
		return false, err
	}
	var ok bool
	switch ref.Type {
	case models.EntityCategory:
		_, ok = m.state.Categories[ref.ID]
	case models.EntityBrand:
		ok = m.state.Brands[ref.ID]
	case models.EntityProduct:
		_, ok = m.state.Products[ref.ID]
	case models.EntityVariant:
		_, ok = m.state.Variants[ref.ID]
	}
	return ok, nil
}

func (m *memStore) ProductIDsByCategory(_ context.Context, categoryID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int
	for id, p := range m.state.Products {
		if p.category == categoryID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *memStore) ProductIDsByBrand(_ context.Context, brandID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int
	for id, p := range m.state.Products {
		if p.brand == brandID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *memStore) VariantIDsByProducts(_ context.Context, productIDs []int) (map[int][]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := toSet(productIDs)
	out := map[int][]int{}
	for id, v := range m.state.Variants {
		if want[v.product] {
			out[v.product] = append(out[v.product], id)
		}
	}
	return out, nil
}

func (m *memStore) ProductIDOfVariant(_ context.Context, variantID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state.Variants[variantID]
	if !ok {
		return 0, ErrNotFound
	}
	return v.product, nil
}

func (m *memStore) BrandIDOfProduct(_ context.Context, productID int) (*int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.Products[productID]
	if !ok {
		return nil, ErrNotFound
	}
	if p.brand == 0 {
		return nil, nil
	}
	b := p.brand
	return &b, nil
}

func (m *memStore) VariantImagePaths(_ context.Context, variantIDs []int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("VariantImagePaths", ""); err != nil {
		return nil, err
	}
	var out []string
	for _, id := range variantIDs {
		if v, ok := m.state.Variants[id]; ok && v.image != "" {
			out = append(out, v.image)
		}
	}
	return out, nil
}

func (m *memStore) MediaURLPaths(_ context.Context, productIDs, variantIDs []int, mediaType string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, vs := toSet(productIDs), toSet(variantIDs)
	var out []string
	for _, u := range m.state.MediaURLs {
		md := m.state.Media[u.media]
		if u.mediaType != mediaType {
			continue
		}
		if (md.product != 0 && ps[md.product]) || (md.variant != 0 && vs[md.variant]) {
			out = append(out, u.url)
		}
	}
	return out, nil
}

func (m *memStore) PathsReferencedOutside(_ context.Context, paths []string, productIDs, variantIDs []int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("PathsReferencedOutside", ""); err != nil {
		return nil, err
	}
	ps, vs := toSet(productIDs), toSet(variantIDs)
	used := map[string]bool{}
	for id, v := range m.state.Variants {
		if !vs[id] {
			used[strings.TrimSpace(v.image)] = true
		}
	}
	for _, u := range m.state.MediaURLs {
		md := m.state.Media[u.media]
		if (md.product != 0 && ps[md.product]) || (md.variant != 0 && vs[md.variant]) {
			continue
		}
		used[strings.TrimSpace(u.url)] = true
	}
	var out []string
	for _, p := range paths {
		if used[p] {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- transactions ---

func (m *memStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	if err := m.check("Begin", ""); err != nil {
		m.mu.Unlock()
		return err
	}
	work := m.state.clone()
	m.mu.Unlock()

	if err := fn(&memTx{store: m, st: work}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("Commit", ""); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	store *memStore
	st    *memState
}

func (t *memTx) Nested(_ context.Context, fn func(Tx) error) error {
	sub := &memTx{store: t.store, st: t.st.clone()}
	if err := fn(sub); err != nil {
		return err
	}
	*t.st = *sub.st
	return nil
}

func (t *memTx) DistinctBrandIDs(_ context.Context, productIDs []int) ([]int, error) {
	if err := t.store.check("DistinctBrandIDs", ""); err != nil {
		return nil, err
	}
	set := map[int]bool{}
	for _, id := range productIDs {
		if p, ok := t.st.Products[id]; ok && p.brand != 0 {
			set[p.brand] = true
		}
	}
	return sortedKeys(set), nil
}

func (t *memTx) BrandsReferencedOutside(_ context.Context, brandIDs []int, categoryID int) ([]int, error) {
	if err := t.store.check("BrandsReferencedOutside", ""); err != nil {
		return nil, err
	}
	want := toSet(brandIDs)
	set := map[int]bool{}
	for _, p := range t.st.Products {
		if want[p.brand] && p.category != categoryID {
			set[p.brand] = true
		}
	}
	return sortedKeys(set), nil
}

func (t *memTx) ExclusiveAttributeValueIDs(_ context.Context, variantID int) ([]int, error) {
	if err := t.store.check("ExclusiveAttributeValueIDs", variantID); err != nil {
		return nil, err
	}
	set := map[int]bool{}
	for l := range t.st.Links {
		if l.variant == variantID {
			set[l.value] = true
		}
	}
	for l := range t.st.Links {
		if l.variant != variantID && set[l.value] {
			delete(set, l.value)
		}
	}
	return sortedKeys(set), nil
}

func (t *memTx) DeleteVariantAttributeLinks(_ context.Context, variantID int) (int64, error) {
	if err := t.store.check("DeleteVariantAttributeLinks", variantID); err != nil {
		return 0, err
	}
	var n int64
	for l := range t.st.Links {
		if l.variant == variantID {
			delete(t.st.Links, l)
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteUnreferencedAttributeValues(_ context.Context, ids []int) (int64, error) {
	if err := t.store.check("DeleteUnreferencedAttributeValues", ""); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		referenced := false
		for l := range t.st.Links {
			if l.value == id {
				referenced = true
				break
			}
		}
		if !referenced && t.st.Values[id] {
			delete(t.st.Values, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) ownedMedia(owner models.Ref) []int {
	var ids []int
	for id, md := range t.st.Media {
		if (owner.Type == models.EntityProduct && md.product == owner.ID) ||
			(owner.Type == models.EntityVariant && md.variant == owner.ID) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *memTx) DeleteMediaURLs(_ context.Context, owner models.Ref) (int64, error) {
	if err := t.store.check("DeleteMediaURLs", owner.ID); err != nil {
		return 0, err
	}
	media := toSet(t.ownedMedia(owner))
	var n int64
	for id, u := range t.st.MediaURLs {
		if media[u.media] {
			delete(t.st.MediaURLs, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteMedia(_ context.Context, owner models.Ref) (int64, error) {
	if err := t.store.check("DeleteMedia", owner.ID); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range t.ownedMedia(owner) {
		for _, u := range t.st.MediaURLs {
			if u.media == id {
				return 0, fmt.Errorf("fk violation: media %d has urls", id)
			}
		}
		delete(t.st.Media, id)
		n++
	}
	return n, nil
}

func (t *memTx) DeleteVariant(_ context.Context, id int) (int64, error) {
	if err := t.store.check("DeleteVariant", id); err != nil {
		return 0, err
	}
	for l := range t.st.Links {
		if l.variant == id {
			return 0, fmt.Errorf("fk violation: variant %d has attribute links", id)
		}
	}
	for _, md := range t.st.Media {
		if md.variant == id {
			return 0, fmt.Errorf("fk violation: variant %d has media", id)
		}
	}
	if _, ok := t.st.Variants[id]; !ok {
		return 0, nil
	}
	delete(t.st.Variants, id)
	return 1, nil
}

func (t *memTx) DeleteProduct(_ context.Context, id int) (int64, error) {
	if err := t.store.check("DeleteProduct", id); err != nil {
		return 0, err
	}
	for _, v := range t.st.Variants {
		if v.product == id {
			return 0, fmt.Errorf("fk violation: product %d has variants", id)
		}
	}
	for _, md := range t.st.Media {
		if md.product == id {
			return 0, fmt.Errorf("fk violation: product %d has media", id)
		}
	}
	if _, ok := t.st.Products[id]; !ok {
		return 0, nil
	}
	delete(t.st.Products, id)
	return 1, nil
}

func (t *memTx) DeleteBrand(_ context.Context, id int) (int64, error) {
	if err := t.store.check("DeleteBrand", id); err != nil {
		return 0, err
	}
	for _, p := range t.st.Products {
		if p.brand == id {
			return 0, fmt.Errorf("fk violation: brand %d has products", id)
		}
	}
	if !t.st.Brands[id] {
		return 0, nil
	}
	delete(t.st.Brands, id)
	return 1, nil
}

func (t *memTx) DetachChildCategories(_ context.Context, id int) (int64, error) {
	if err := t.store.check("DetachChildCategories", id); err != nil {
		return 0, err
	}
	var n int64
	for cid, c := range t.st.Categories {
		if c.parent == id {
			t.st.Categories[cid] = catRow{}
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteCategory(_ context.Context, id int) (int64, error) {
	if err := t.store.check("DeleteCategory", id); err != nil {
		return 0, err
	}
	for _, p := range t.st.Products {
		if p.category == id {
			return 0, fmt.Errorf("fk violation: category %d has products", id)
		}
	}
	for _, c := range t.st.Categories {
		if c.parent == id {
			return 0, fmt.Errorf("fk violation: category %d has children", id)
		}
	}
	if _, ok := t.st.Categories[id]; !ok {
		return 0, nil
	}
	delete(t.st.Categories, id)
	return 1, nil
}

func (t *memTx) DeleteSecondary(_ context.Context, table models.SecondaryTable, productIDs, variantIDs []int) (int64, error) {
	if err := t.store.check("DeleteSecondary", table); err != nil {
		return 0, err
	}
	ps, vs := toSet(productIDs), toSet(variantIDs)
	var n int64
	for id, r := range t.st.Secondary[table] {
		if (r.product != 0 && ps[r.product]) || (r.variant != 0 && vs[r.variant]) {
			delete(t.st.Secondary[table], id)
			n++
		}
	}
	return n, nil
}

func toSet(ids []int) map[int]bool {
	s := make(map[int]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
