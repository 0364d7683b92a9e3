package rdf

// Namespaces used by the generated graph.
const (
	RDFNamespace   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace  = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace   = "http://www.w3.org/2001/XMLSchema#"
	M3CNamespace   = "http://www.metabolomics.info/ontologies/2019/metabolomics-consortium#"
	VIVONamespace  = "http://vivoweb.org/ontology/core#"
	VitroNamespace = "http://vitro.mannlib.cornell.edu/ns/vitro/public#"
	VCardNamespace = "http://www.w3.org/2006/vcard/ns#"
	BIBONamespace  = "http://purl.org/ontology/bibo/"
	FOAFNamespace  = "http://xmlns.com/foaf/0.1/"
	OBONamespace   = "http://purl.obolibrary.org/obo/"
)

// Core predicates and datatypes.
const (
	Type        = RDFNamespace + "type"
	Label       = RDFSNamespace + "label"
	XSDString   = XSDNamespace + "string"
	XSDDateTime = XSDNamespace + "dateTime"
)

// Consortium ontology terms.
const (
	M3CProject        = M3CNamespace + "Project"
	M3CStudy          = M3CNamespace + "Study"
	M3CDataset        = M3CNamespace + "Dataset"
	M3CTool           = M3CNamespace + "Tool"
	M3CProjectID      = M3CNamespace + "projectId"
	M3CProjectType    = M3CNamespace + "projectType"
	M3CStudyID        = M3CNamespace + "studyId"
	M3CStudyType      = M3CNamespace + "studyType"
	M3CSubmitted      = M3CNamespace + "submitted"
	M3CWorkbenchLink  = M3CNamespace + "workbenchLink"
	M3CSummary        = M3CNamespace + "summary"
	M3CManagedBy      = M3CNamespace + "managedBy"
	M3CManages        = M3CNamespace + "manages"
	M3CHasPI          = M3CNamespace + "hasPI"
	M3CIsPIFor        = M3CNamespace + "isPIFor"
	M3CRunBy          = M3CNamespace + "runBy"
	M3CRunnerOf       = M3CNamespace + "runnerOf"
	M3CInCollection   = M3CNamespace + "inCollection"
	M3CCollectionFor  = M3CNamespace + "collectionFor"
	M3CSubjectSpecies = M3CNamespace + "subjectSpecies"
	M3CSampleID       = M3CNamespace + "sampleId"
	M3CDataFor        = M3CNamespace + "dataFor"
	M3CDevelopedFrom  = M3CNamespace + "developedFrom"
	M3CHasParent      = M3CNamespace + "hasParent"
	M3CParentOf       = M3CNamespace + "parentOf"
	M3CAssociatedWith = M3CNamespace + "associatedWith"
	M3CAssociationFor = M3CNamespace + "associationFor"
	M3CHomepage       = M3CNamespace + "homepage"
	M3CLicenseType    = M3CNamespace + "licenseType"
	M3CLicenseURL     = M3CNamespace + "licenseUrl"
	M3CDevelopedBy    = M3CNamespace + "developedBy"
	M3CDeveloperOf    = M3CNamespace + "developerOf"
	M3CTag            = M3CNamespace + "tag"
	M3CCitation       = M3CNamespace + "citation"
)

// VIVO, vitro, vcard, bibo and foaf terms.
const (
	VIVOInstitute     = VIVONamespace + "Institute"
	VIVODepartment    = VIVONamespace + "Department"
	VIVOLaboratory    = VIVONamespace + "Laboratory"
	VIVOAuthorship    = VIVONamespace + "Authorship"
	VIVORelatedBy     = VIVONamespace + "relatedBy"
	VIVORelates       = VIVONamespace + "relates"
	VIVODateTimeValue = VIVONamespace + "dateTimeValue"
	VIVODateTime      = VIVONamespace + "dateTime"

	VitroMainImage         = VitroNamespace + "mainImage"
	VitroFile              = VitroNamespace + "File"
	VitroFileByteStream    = VitroNamespace + "FileByteStream"
	VitroDownloadLocation  = VitroNamespace + "downloadLocation"
	VitroFilename          = VitroNamespace + "filename"
	VitroMimeType          = VitroNamespace + "mimeType"
	VitroThumbnailImage    = VitroNamespace + "thumbnailImage"
	VitroDirectDownloadURL = VitroNamespace + "directDownloadUrl"

	VCardName       = VCardNamespace + "Name"
	VCardEmail      = VCardNamespace + "Email"
	VCardWork       = VCardNamespace + "Work"
	VCardTelephone  = VCardNamespace + "Telephone"
	VCardHasName    = VCardNamespace + "hasName"
	VCardFamilyName = VCardNamespace + "familyName"
	VCardGivenName  = VCardNamespace + "givenName"
	VCardHasEmail   = VCardNamespace + "hasEmail"
	VCardEmailAddr  = VCardNamespace + "email"
	VCardHasPhone   = VCardNamespace + "hasTelephone"
	VCardPhone      = VCardNamespace + "telephone"

	BIBOArticle = BIBONamespace + "Article"
	BIBODOI     = BIBONamespace + "doi"
	BIBOPMID    = BIBONamespace + "pmid"

	FOAFPerson = FOAFNamespace + "Person"

	// ARG_2000028 links a person to their vcard; ARG_2000029 is the inverse.
	OBOContactInfo   = OBONamespace + "ARG_2000028"
	OBOContactInfoOf = OBONamespace + "ARG_2000029"
)
