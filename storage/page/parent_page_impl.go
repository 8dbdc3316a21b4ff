// ParentPageImpl adapts this module's own Page to the interfaces.ParentPage
// contract, so a host process embedding this storage core through
// interfaces.ParentBufMgr sees its pages the same way it would see pages
// from any other buffer pool implementation. Grounded on the teacher's
// parent_page_impl.go, which wrote this same adapter against an
// externally-supplied Page type; here that type is the one this module
// itself defines in page.go.
package page

type ParentPageImpl struct {
	*Page
}

func (p *ParentPageImpl) DecPPinCount() {
	p.DecPinCount()
}

func (p *ParentPageImpl) PPinCount() int32 {
	return p.PinCount()
}

func (p *ParentPageImpl) GetPPageId() int32 {
	return int32(p.GetPageId())
}

func (p *ParentPageImpl) DataAsSlice() []byte {
	return p.Data()
}
