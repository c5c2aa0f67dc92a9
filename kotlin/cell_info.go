package kotlin

import "fmt"

// CellInfo matches Android's abstract CellInfo class.
// Concrete kinds are *CellInfoLte, *CellInfoGsm, *CellInfoWcdma, *CellInfoNr
// and *CellInfoCdma; callers dispatch on the concrete type.
type CellInfo interface {
	// IsRegistered matches: cellInfo.isRegistered()
	IsRegistered() bool
	// GetTimeStamp matches: cellInfo.getTimeStamp() (nanoseconds since boot)
	GetTimeStamp() int64
	// String matches: cellInfo.toString(), prefixed with the class name
	String() string
}

// CellInfoBase holds the fields every CellInfo subclass shares
type CellInfoBase struct {
	Registered bool
	TimeStamp  int64
}

func (b CellInfoBase) IsRegistered() bool {
	return b.Registered
}

func (b CellInfoBase) GetTimeStamp() int64 {
	return b.TimeStamp
}

func (b CellInfoBase) describe() string {
	registered := "NO"
	if b.Registered {
		registered = "YES"
	}
	return fmt.Sprintf("mRegistered=%s mTimeStamp=%dns", registered, b.TimeStamp)
}

// CellSignalStrength is the common part of every CellSignalStrength* class
type CellSignalStrength struct {
	Dbm      int
	AsuLevel int
}

// GetDbm matches: cellSignalStrength.getDbm()
func (s *CellSignalStrength) GetDbm() int {
	return s.Dbm
}

// GetAsuLevel matches: cellSignalStrength.getAsuLevel()
func (s *CellSignalStrength) GetAsuLevel() int {
	return s.AsuLevel
}

// CellIdentityLte matches Android's CellIdentityLte
type CellIdentityLte struct {
	Ci  int // 28-bit E-UTRAN cell identity
	Tac int // 16-bit tracking area code
}

func (c *CellIdentityLte) GetCi() int  { return c.Ci }
func (c *CellIdentityLte) GetTac() int { return c.Tac }

// CellIdentityGsm matches Android's CellIdentityGsm
type CellIdentityGsm struct {
	Cid int // 16-bit cell id
	Lac int // 16-bit location area code
}

func (c *CellIdentityGsm) GetCid() int { return c.Cid }
func (c *CellIdentityGsm) GetLac() int { return c.Lac }

// CellIdentityWcdma matches Android's CellIdentityWcdma
type CellIdentityWcdma struct {
	Cid int // 28-bit UMTS cell id
	Lac int // 16-bit location area code
}

func (c *CellIdentityWcdma) GetCid() int { return c.Cid }
func (c *CellIdentityWcdma) GetLac() int { return c.Lac }

// CellIdentityNr matches Android's CellIdentityNr (API 29)
type CellIdentityNr struct {
	Nci int64 // 36-bit NR cell identity
	Tac int   // 24-bit tracking area code
}

func (c *CellIdentityNr) GetNci() int64 { return c.Nci }
func (c *CellIdentityNr) GetTac() int   { return c.Tac }

// CellIdentityCdma matches Android's CellIdentityCdma
type CellIdentityCdma struct {
	BasestationId int
	NetworkId     int
	SystemId      int
}

// CellSignalStrengthNr matches Android's CellSignalStrengthNr.
// Only the SS-RSRP figure is modeled.
type CellSignalStrengthNr struct {
	SsRsrp int
}

// CellInfoLte matches Android's CellInfoLte
type CellInfoLte struct {
	CellInfoBase
	CellIdentity       CellIdentityLte
	CellSignalStrength CellSignalStrength
}

// GetCellIdentity matches: cellInfoLte.getCellIdentity()
func (c *CellInfoLte) GetCellIdentity() *CellIdentityLte {
	return &c.CellIdentity
}

// GetCellSignalStrength matches: cellInfoLte.getCellSignalStrength()
func (c *CellInfoLte) GetCellSignalStrength() *CellSignalStrength {
	return &c.CellSignalStrength
}

func (c *CellInfoLte) String() string {
	return fmt.Sprintf("CellInfoLte:{%s CellIdentityLte:{mCi=%d mTac=%d} CellSignalStrengthLte:{dbm=%d asu=%d}}",
		c.describe(), c.CellIdentity.Ci, c.CellIdentity.Tac, c.CellSignalStrength.Dbm, c.CellSignalStrength.AsuLevel)
}

// CellInfoGsm matches Android's CellInfoGsm
type CellInfoGsm struct {
	CellInfoBase
	CellIdentity       CellIdentityGsm
	CellSignalStrength CellSignalStrength
}

func (c *CellInfoGsm) GetCellIdentity() *CellIdentityGsm {
	return &c.CellIdentity
}

func (c *CellInfoGsm) GetCellSignalStrength() *CellSignalStrength {
	return &c.CellSignalStrength
}

func (c *CellInfoGsm) String() string {
	return fmt.Sprintf("CellInfoGsm:{%s CellIdentityGsm:{mCid=%d mLac=%d} CellSignalStrengthGsm:{dbm=%d asu=%d}}",
		c.describe(), c.CellIdentity.Cid, c.CellIdentity.Lac, c.CellSignalStrength.Dbm, c.CellSignalStrength.AsuLevel)
}

// CellInfoWcdma matches Android's CellInfoWcdma
type CellInfoWcdma struct {
	CellInfoBase
	CellIdentity       CellIdentityWcdma
	CellSignalStrength CellSignalStrength
}

func (c *CellInfoWcdma) GetCellIdentity() *CellIdentityWcdma {
	return &c.CellIdentity
}

func (c *CellInfoWcdma) GetCellSignalStrength() *CellSignalStrength {
	return &c.CellSignalStrength
}

func (c *CellInfoWcdma) String() string {
	return fmt.Sprintf("CellInfoWcdma:{%s CellIdentityWcdma:{mCid=%d mLac=%d} CellSignalStrengthWcdma:{dbm=%d asu=%d}}",
		c.describe(), c.CellIdentity.Cid, c.CellIdentity.Lac, c.CellSignalStrength.Dbm, c.CellSignalStrength.AsuLevel)
}

// CellInfoNr matches Android's CellInfoNr (API 29)
type CellInfoNr struct {
	CellInfoBase
	CellIdentity       CellIdentityNr
	CellSignalStrength CellSignalStrengthNr
}

func (c *CellInfoNr) GetCellIdentity() *CellIdentityNr {
	return &c.CellIdentity
}

func (c *CellInfoNr) GetCellSignalStrength() *CellSignalStrengthNr {
	return &c.CellSignalStrength
}

func (c *CellInfoNr) String() string {
	return fmt.Sprintf("CellInfoNr:{%s CellIdentityNr:{mNci=%d mTac=%d} CellSignalStrengthNr:{ssRsrp=%d}}",
		c.describe(), c.CellIdentity.Nci, c.CellIdentity.Tac, c.CellSignalStrength.SsRsrp)
}

// CellInfoCdma matches Android's CellInfoCdma
type CellInfoCdma struct {
	CellInfoBase
	CellIdentity       CellIdentityCdma
	CellSignalStrength CellSignalStrength
}

func (c *CellInfoCdma) String() string {
	return fmt.Sprintf("CellInfoCdma:{%s CellIdentityCdma:{mBasestationId=%d mNetworkId=%d mSystemId=%d}}",
		c.describe(), c.CellIdentity.BasestationId, c.CellIdentity.NetworkId, c.CellIdentity.SystemId)
}
